package stratum

import "github.com/arloliu/stratum/types"

// Type aliases for convenience - re-export from types package.
type (
	Consistency      = types.Consistency
	ConsistencyPair  = types.ConsistencyPair
	TableKind        = types.TableKind
	TableDefinition  = types.TableDefinition
	Credentials      = types.Credentials
	Columns          = types.Columns
	Row              = types.Row
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)

// Re-export consistency level constants for convenience.
const (
	One         = types.One
	Quorum      = types.Quorum
	LocalQuorum = types.LocalQuorum
	EachQuorum  = types.EachQuorum
	All         = types.All
	Any         = types.Any
	Two         = types.Two
	Three       = types.Three
	LocalOne    = types.LocalOne
)

// Re-export table kind constants for convenience.
const (
	TableStandard = types.TableStandard
	TableSuper    = types.TableSuper
)
