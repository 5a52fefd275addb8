// Package stratum provides a client-side access layer for a column-oriented
// distributed data store reached over a remote-procedure transport.
//
// Stratum lets an application read, write, delete, count and fully
// enumerate rows of flat and nested (super-column) tables without building
// wire-level request structures. The transport itself lives behind the
// narrow gateway.Gateway interface; see the gateway/cql subpackage for a
// gocql-backed implementation.
//
// # Key Features
//
//   - Readiness-gated command queues: calls issued before the connection or
//     schema handshake completes are deferred and replayed in submission
//     order once their owner becomes ready
//   - Canonical query normalization: per-call options resolve to one
//     (selector scope, predicate, consistency) descriptor with every
//     malformed combination rejected up front
//   - Cursor-based full-keyspace enumeration with per-row backpressure
//   - Flat and nested table layouts with a plain flattened Row result shape
//
// # Basic Usage
//
//	gw, err := cql.New(cql.Config{Addresses: addrs, Artifact: artifact})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := stratum.NewSession(gw,
//	    stratum.WithCredentials("user", "pass"),
//	    stratum.WithDefaultConsistency(stratum.ConsistencyPair{Read: stratum.One}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	// The handshake runs in the background; calls issued meanwhile are
//	// queued and replayed in order.
//	session.Connect(ctx)
//	session.SelectKeyspace(ctx, "app")
//
//	posts := session.Table("Posts")
//	err = posts.Set(ctx, "row1", map[string]any{"title": "hello", "views": 1})
//	row, err := posts.Get(ctx, "row1")
//
// # Error Handling
//
// Per-request failures are returned from the failing call only, wrapped in
// *types.RequestError. Failures with no caller to return to (a rejected
// login handshake, a table missing from the selected keyspace) are
// asynchronous failure events: they fail the owner's readiness gate, fail
// its queued commands, and fire the WithErrorHandler callback.
//
// # Concurrency
//
// All exported types are safe for concurrent use. Each owner (the session
// and every table handle) executes its commands on a single worker, so
// commands on one owner run in strict submission order and no two RPC
// calls of one owner are ever in flight at once.
package stratum
