// Package schema parses the declarative keyspace bootstrap artifact.
//
// The artifact lists a keyspace's tables with their storage kind and
// comparator types. It is consumed by gateway implementations at
// describe-schema and create-keyspace time; the stratum core never
// generates it.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/stratum/types"
)

// DefaultComparator is assumed for tables that do not declare one.
const DefaultComparator = "UTF8Type"

// Keyspace is the root of the bootstrap artifact.
type Keyspace struct {
	// Name is the keyspace name.
	Name string `yaml:"name"`

	// ReplicationFactor is used by CreateKeyspace; defaults to 1.
	ReplicationFactor int `yaml:"replication_factor"`

	// Tables lists the keyspace's table definitions.
	Tables []Table `yaml:"tables"`
}

// Table describes one table of the artifact.
type Table struct {
	// Name is the table (column family) name.
	Name string `yaml:"name"`

	// Kind is the storage kind tag: "standard" (default) or "super".
	Kind string `yaml:"kind"`

	// Comparator orders column names; defaults to UTF8Type.
	Comparator string `yaml:"comparator"`

	// Subcomparator orders subcolumn names of super tables.
	Subcomparator string `yaml:"subcomparator"`
}

// Parse decodes and validates an artifact from YAML bytes.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *Keyspace: The decoded artifact with defaults applied
//   - error: Decode or validation error
func Parse(data []byte) (*Keyspace, error) {
	var ks Keyspace
	if err := yaml.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("stratum/schema: decode artifact: %w", err)
	}

	if err := ks.Validate(); err != nil {
		return nil, err
	}

	return &ks, nil
}

// Load reads and parses an artifact file.
//
// Parameters:
//   - path: Path to the YAML artifact
//
// Returns:
//   - *Keyspace: The decoded artifact with defaults applied
//   - error: Read, decode or validation error
func Load(path string) (*Keyspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stratum/schema: read artifact: %w", err)
	}

	return Parse(data)
}

// Validate checks the artifact and applies defaults in place: replication
// factor 1, standard kind, UTF8Type comparators.
//
// Returns:
//   - error: Descriptive error for missing names, duplicate tables or
//     unknown kind tags
func (k *Keyspace) Validate() error {
	if k.Name == "" {
		return fmt.Errorf("stratum/schema: keyspace name is required")
	}
	if k.ReplicationFactor <= 0 {
		k.ReplicationFactor = 1
	}

	seen := make(map[string]struct{}, len(k.Tables))
	for i := range k.Tables {
		t := &k.Tables[i]
		if t.Name == "" {
			return fmt.Errorf("stratum/schema: keyspace %s: table %d has no name", k.Name, i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("stratum/schema: keyspace %s: duplicate table %s", k.Name, t.Name)
		}
		seen[t.Name] = struct{}{}

		kind, err := types.ParseTableKind(t.Kind)
		if err != nil {
			return fmt.Errorf("stratum/schema: keyspace %s: table %s: %w", k.Name, t.Name, err)
		}
		t.Kind = string(kind)

		if t.Comparator == "" {
			t.Comparator = DefaultComparator
		}
		if kind == types.TableSuper && t.Subcomparator == "" {
			t.Subcomparator = DefaultComparator
		}
	}

	return nil
}

// Definitions converts the artifact to the definition map published by
// DescribeSchema.
//
// Returns:
//   - map[string]types.TableDefinition: Definitions keyed by table name
func (k *Keyspace) Definitions() map[string]types.TableDefinition {
	defs := make(map[string]types.TableDefinition, len(k.Tables))
	for _, t := range k.Tables {
		kind, err := types.ParseTableKind(t.Kind)
		if err != nil {
			// Validate rejects unknown kinds; unvalidated artifacts fall
			// back to standard.
			kind = types.TableStandard
		}
		defs[t.Name] = types.TableDefinition{
			Name:          t.Name,
			Kind:          kind,
			Comparator:    t.Comparator,
			Subcomparator: t.Subcomparator,
		}
	}

	return defs
}
