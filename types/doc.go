// Package types provides shared types and error definitions for the stratum library.
//
// This is a leaf package with zero stratum imports to prevent import cycles.
// All packages in stratum can safely import this package.
//
// # Types
//
// Consistency levels follow the store's legacy RPC enum; the zero value is
// reserved for "unset" so a request is never sent with an accidental level:
//
//	const (
//	    One         Consistency = 1
//	    Quorum      Consistency = 2
//	    LocalQuorum Consistency = 3
//	    EachQuorum  Consistency = 4
//	    All         Consistency = 5
//	    Any         Consistency = 6
//	    Two         Consistency = 7
//	    Three       Consistency = 8
//	    LocalOne    Consistency = 11
//	)
//
// TableDefinition describes one table of the active keyspace; TableKind
// distinguishes flat (Standard) from nested (Super) storage layouts.
//
// Row is the flattened result shape: Columns for flat results,
// SuperColumns for nested ones.
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrSessionClosed: An operation was attempted on a closed session
//   - ErrQueueFull: The owner's command queue is at capacity
//   - ErrInvalidQuery: Query options outside the documented shapes
//   - ErrSliceUnsupported: Indexed slice queries are not implemented
//   - ErrPageOverflow: A range page exceeded the requested stride
//
// Structured errors (HandshakeError, TableNotFoundError, RequestError)
// support errors.Is/As via Unwrap.
package types
