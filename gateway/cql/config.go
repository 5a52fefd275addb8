package cql

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/arloliu/stratum/schema"
	"github.com/arloliu/stratum/types"
)

// Config holds the connection settings for a CQL-backed gateway.
type Config struct {
	// Addresses lists hostnames or IPs of store instances.
	Addresses []string

	// Port the store listens on. Defaults to 9042.
	Port int

	// Timeout is the per-request timeout. Defaults to 600ms.
	Timeout time.Duration

	// ConnectTimeout is the initial dial timeout. Defaults to 5s.
	ConnectTimeout time.Duration

	// DisableInitialHostLookup instructs the driver to not attempt to get
	// host info from the system.peers table.
	DisableInitialHostLookup bool

	// Artifact describes the keyspace layout. It backs DescribeSchema and
	// CreateKeyspace and tells the gateway which tables are nested.
	Artifact *schema.Keyspace
}

const (
	defaultPort           = 9042
	defaultTimeout        = 600 * time.Millisecond
	defaultConnectTimeout = 5 * time.Second
)

func (cfg *Config) validate() error {
	if len(cfg.Addresses) == 0 {
		return errors.New("stratum/cql: no addresses configured")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	return nil
}

// cluster builds a driver cluster config. Statements are always
// keyspace-qualified, so the connection itself stays on system.
func (cfg *Config) cluster(creds types.Credentials) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Addresses...)
	cluster.Port = cfg.Port
	cluster.Keyspace = "system"
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup

	if creds.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: creds.Username,
			Password: creds.Password,
		}
	}

	return cluster
}
