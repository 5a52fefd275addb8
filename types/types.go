// Package types provides shared types and errors for the Stratum library.
//
// This is a "leaf" package with no imports from other stratum packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Consistency represents the replication-acknowledgment requirement applied
// to one request. The numbering follows the store's legacy RPC enum, so the
// zero value is deliberately invalid and means "unset".
type Consistency uint16

const (
	// ConsistencyUnset means no level was chosen; a request built with it
	// falls back to the session default.
	ConsistencyUnset Consistency = 0

	One         Consistency = 1
	Quorum      Consistency = 2
	LocalQuorum Consistency = 3
	EachQuorum  Consistency = 4
	All         Consistency = 5
	Any         Consistency = 6
	Two         Consistency = 7
	Three       Consistency = 8
	LocalOne    Consistency = 11
)

// String returns the canonical upper-case name of the level.
func (c Consistency) String() string {
	switch c {
	case One:
		return "ONE"
	case Quorum:
		return "QUORUM"
	case LocalQuorum:
		return "LOCAL_QUORUM"
	case EachQuorum:
		return "EACH_QUORUM"
	case All:
		return "ALL"
	case Any:
		return "ANY"
	case Two:
		return "TWO"
	case Three:
		return "THREE"
	case LocalOne:
		return "LOCAL_ONE"
	}

	return "UNSET"
}

// IsSet reports whether the level holds a concrete value.
func (c Consistency) IsSet() bool {
	return c != ConsistencyUnset
}

// ParseConsistency converts a level name (case-insensitive) to a Consistency.
//
// Parameters:
//   - s: Level name, e.g. "QUORUM" or "local_one"
//
// Returns:
//   - Consistency: The parsed level
//   - error: Descriptive error for unknown names
func ParseConsistency(s string) (Consistency, error) {
	switch strings.ToUpper(s) {
	case "ONE":
		return One, nil
	case "QUORUM":
		return Quorum, nil
	case "LOCAL_QUORUM":
		return LocalQuorum, nil
	case "EACH_QUORUM":
		return EachQuorum, nil
	case "ALL":
		return All, nil
	case "ANY":
		return Any, nil
	case "TWO":
		return Two, nil
	case "THREE":
		return Three, nil
	case "LOCAL_ONE":
		return LocalOne, nil
	}

	return ConsistencyUnset, fmt.Errorf("stratum: unknown consistency level %q", s)
}

// ConsistencyPair holds the session-wide default read and write levels.
//
// The pair is always fully derived: setting it through
// Session.SetDefaultConsistency replaces unset fields with Quorum rather
// than keeping the previous values.
type ConsistencyPair struct {
	// Read is the default level for get, count and range operations.
	Read Consistency

	// Write is the default level for set, remove and truncate operations.
	Write Consistency
}

// Normalized returns a copy with unset fields replaced by Quorum.
func (p ConsistencyPair) Normalized() ConsistencyPair {
	if !p.Read.IsSet() {
		p.Read = Quorum
	}
	if !p.Write.IsSet() {
		p.Write = Quorum
	}

	return p
}

// TableKind identifies the storage layout of a table (column family).
type TableKind string

const (
	// TableStandard is a flat table: rows map column names to values.
	TableStandard TableKind = "Standard"

	// TableSuper is a nested table: rows map super-column names to inner
	// column maps.
	TableSuper TableKind = "Super"
)

// ParseTableKind converts a storage-kind tag (case-insensitive) to a TableKind.
// The empty string maps to TableStandard.
func ParseTableKind(s string) (TableKind, error) {
	switch strings.ToLower(s) {
	case "", "standard":
		return TableStandard, nil
	case "super":
		return TableSuper, nil
	}

	return "", fmt.Errorf("stratum: unknown table kind %q", s)
}

// TableDefinition describes one table of the active keyspace.
//
// Definitions are immutable once fetched; selecting a keyspace replaces the
// whole definition set wholesale.
type TableDefinition struct {
	// Name is the table (column family) name.
	Name string

	// Kind is the storage layout, Standard or Super.
	Kind TableKind

	// Comparator is the type tag used to order column names.
	Comparator string

	// Subcomparator is the type tag used to order subcolumn names.
	// Only meaningful for Super tables.
	Subcomparator string
}

// IsSuper reports whether the table uses the nested (super-column) layout.
func (d TableDefinition) IsSuper() bool {
	return d.Kind == TableSuper
}

// Credentials holds the authentication credential for the login handshake.
type Credentials struct {
	Username string
	Password string
}

// Columns maps column names to their string values.
//
// Values are always strings on the wire; writes stringify every value.
type Columns map[string]string

// Row is one flattened result row.
//
// For flat tables (and for nested tables queried with a super-column scope)
// Columns is populated and SuperColumns is nil. For nested tables queried
// without a scope, SuperColumns holds one Columns map per super-column name.
type Row struct {
	// Key is the row key.
	Key string

	// Columns holds column name to value pairs.
	Columns Columns

	// SuperColumns holds super-column name to inner column map pairs.
	SuperColumns map[string]Columns
}

// Logger defines the minimal structured logging interface used by Stratum.
//
// The method set is compatible with zap.SugaredLogger; any logger exposing
// keysAndValues-style methods can be used directly.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}

// Sentinel errors for common failure scenarios.
var (
	// ErrSessionClosed indicates an operation was attempted on a closed
	// session, or a queued command was abandoned by Close.
	ErrSessionClosed = errors.New("stratum: session is closed")

	// ErrNilGateway indicates that a nil gateway was provided.
	ErrNilGateway = errors.New("stratum: gateway cannot be nil")

	// ErrQueueFull indicates the owner's command queue is at capacity.
	ErrQueueFull = errors.New("stratum: command queue is full")

	// ErrNoConsistency indicates a request resolved neither a per-call
	// consistency override nor a session default.
	ErrNoConsistency = errors.New("stratum: no consistency level resolved")

	// ErrInvalidQuery indicates query options outside the documented shapes.
	// Errors wrapping it carry a description of the offending option.
	ErrInvalidQuery = errors.New("stratum: invalid query options")

	// ErrInvalidValue indicates a write value whose shape does not match the
	// table's storage layout.
	ErrInvalidValue = errors.New("stratum: invalid write value")

	// ErrSliceUnsupported indicates a call to the indexed slice operation,
	// which this client does not implement.
	ErrSliceUnsupported = errors.New("stratum: slice queries are not supported")

	// ErrPageOverflow indicates a range page contained more rows than the
	// requested stride.
	ErrPageOverflow = errors.New("stratum: range page exceeded requested stride")
)

// HandshakeError wraps a failure of the connection or login handshake.
//
// Handshake failures are fatal to the Session: the readiness gate fails and
// all queued commands are completed with this error.
type HandshakeError struct {
	// Cause is the underlying transport or authentication error.
	Cause error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return "stratum: connection handshake failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// TableNotFoundError indicates the active keyspace has no definition for a
// table handle's name. The handle is permanently unusable; other handles on
// the same session are unaffected.
type TableNotFoundError struct {
	// Table is the missing table name.
	Table string

	// Keyspace is the keyspace that was searched.
	Keyspace string
}

// Error implements the error interface.
func (e *TableNotFoundError) Error() string {
	return "stratum: table " + e.Table + " not found in keyspace " + e.Keyspace
}

// RequestError wraps a failure of a single RPC round trip. It is delivered
// to that call only and never escalated to the session.
type RequestError struct {
	// Op names the failed operation, e.g. "multiget".
	Op string

	// Table is the table the request targeted, if any.
	Table string

	// Cause is the underlying gateway error.
	Cause error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Table == "" {
		return "stratum: " + e.Op + " failed: " + e.Cause.Error()
	}

	return "stratum: " + e.Op + " on " + e.Table + " failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *RequestError) Unwrap() error {
	return e.Cause
}
