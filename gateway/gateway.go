// Package gateway defines the RPC gateway contract between the stratum core
// and the store's remote-procedure transport.
//
// The core never builds wire-level request structures; it hands these
// wire-neutral values to a Gateway implementation, which owns connection
// lifecycle, encoding and socket-level timeouts. See the cql subpackage for
// a gocql-backed implementation and test/testutil for an in-memory fake.
package gateway

import (
	"context"

	"github.com/arloliu/stratum/schema"
	"github.com/arloliu/stratum/types"
)

// SelectorScope names the table a request targets, optionally narrowed to a
// single super column of a nested table.
type SelectorScope struct {
	// Table is the table (column family) name.
	Table string

	// SuperColumn narrows the scope to one super column. Empty for flat
	// tables and for whole-row operations on nested tables.
	SuperColumn string
}

// Predicate selects columns within the scope: either an explicit set of
// names, or a bounded range. Exactly one form is populated.
type Predicate struct {
	// ColumnNames is the explicit set of column names. When non-empty the
	// range fields are ignored.
	ColumnNames []string

	// Start is the inclusive lower bound of the range; empty means
	// "from the beginning".
	Start string

	// Finish is the inclusive upper bound of the range; empty means
	// "to the end".
	Finish string

	// Reversed iterates the range in descending comparator order.
	Reversed bool

	// Count limits the number of columns returned per row.
	Count int
}

// KeyRange bounds a row-key scan for range fetches.
type KeyRange struct {
	// StartKey is the inclusive first row key; empty means "from the
	// beginning".
	StartKey string

	// EndKey is the inclusive last row key; empty means "to the end".
	EndKey string

	// Count limits the number of rows returned.
	Count int
}

// Column is one column cell.
type Column struct {
	Name      string
	Value     string
	Timestamp int64

	// TTL is the time-to-live in seconds; zero means no expiry.
	TTL int32
}

// SuperColumn is one super column holding its own column set.
type SuperColumn struct {
	Name    string
	Columns []Column
}

// RawRow is the nested reply shape for one row, before the core flattens it
// into a types.Row. Exactly one of Columns or SuperColumns is populated,
// depending on the request scope and the table layout.
type RawRow struct {
	Key          string
	Columns      []Column
	SuperColumns []SuperColumn
}

// Deletion removes columns as of a timestamp. An empty ColumnNames deletes
// the whole row, or the whole super column when SuperColumn is set.
type Deletion struct {
	Timestamp   int64
	SuperColumn string
	ColumnNames []string
}

// Mutation is one entry of a batch mutation: an insert of a column or super
// column, or a deletion. Exactly one field is populated.
type Mutation struct {
	Column      *Column
	SuperColumn *SuperColumn
	Deletion    *Deletion
}

// MutationMap groups mutations by row key, then by table name. All
// mutations under one row key are applied atomically per row.
type MutationMap map[string]map[string][]Mutation

// Gateway is the narrow interface the stratum core consumes. Implementations
// own the transport; the core owns none of the wire format.
//
// All methods represent one logical remote call. The core never issues two
// calls on one gateway in parallel.
type Gateway interface {
	// Login performs the authentication handshake.
	Login(ctx context.Context, creds types.Credentials) error

	// DescribeSchema fetches the table-definition set for a keyspace.
	DescribeSchema(ctx context.Context, keyspace string) (map[string]types.TableDefinition, error)

	// SetActiveKeyspace switches the connection to the named keyspace.
	SetActiveKeyspace(ctx context.Context, name string) error

	// MultiGet fetches the selected columns of the given rows.
	// Keys with no matching row may be absent from the result or mapped to
	// a RawRow with no columns; callers treat both as "absent".
	MultiGet(ctx context.Context, keys []string, scope SelectorScope, pred Predicate, cl types.Consistency) (map[string]RawRow, error)

	// MultiCount counts the selected columns of the given rows.
	MultiCount(ctx context.Context, keys []string, scope SelectorScope, pred Predicate, cl types.Consistency) (map[string]int, error)

	// BatchMutate applies all mutations, atomically per row.
	BatchMutate(ctx context.Context, mutations MutationMap, cl types.Consistency) error

	// GetRangeSlices fetches a bounded page of rows ordered by row key.
	GetRangeSlices(ctx context.Context, scope SelectorScope, pred Predicate, keyRange KeyRange, cl types.Consistency) ([]RawRow, error)

	// Truncate deletes every row of the table.
	Truncate(ctx context.Context, table string) error

	// CreateKeyspace creates the keyspace and tables described by the
	// schema artifact.
	CreateKeyspace(ctx context.Context, ks *schema.Keyspace) error

	// DropKeyspace removes the named keyspace.
	DropKeyspace(ctx context.Context, name string) error

	// Close terminates the transport. The gateway cannot be reused.
	Close()
}
