package cql

import (
	"github.com/gocql/gocql"

	"github.com/arloliu/stratum/types"
)

// driverConsistency maps a stratum consistency level to the driver's enum.
// The core resolves levels before calling the gateway, so an unset level
// only occurs through misuse; it falls back to quorum.
func driverConsistency(c types.Consistency) gocql.Consistency {
	switch c {
	case types.One:
		return gocql.One
	case types.Quorum:
		return gocql.Quorum
	case types.LocalQuorum:
		return gocql.LocalQuorum
	case types.EachQuorum:
		return gocql.EachQuorum
	case types.All:
		return gocql.All
	case types.Any:
		return gocql.Any
	case types.Two:
		return gocql.Two
	case types.Three:
		return gocql.Three
	case types.LocalOne:
		return gocql.LocalOne
	}

	return gocql.Quorum
}
