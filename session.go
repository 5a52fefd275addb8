package stratum

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/stratum/gateway"
	"github.com/arloliu/stratum/internal/logging"
	"github.com/arloliu/stratum/internal/metrics"
	"github.com/arloliu/stratum/types"
)

// schemaObserver is the internal observer interface the Session uses to
// signal schema updates. Table handles register once at construction and
// additionally pull current metadata eagerly if it is already available, so
// a signal that fired before subscription is never missed.
type schemaObserver interface {
	schemaUpdated(keyspace string, defs map[string]types.TableDefinition)
	shutdown()
}

// Session owns the gateway handle, the authentication handshake, the active
// keyspace's schema metadata, and the session-level command queue.
//
// # Lifecycle
//
// Create a session with NewSession(), start the handshake with Connect(),
// and clean up with Close():
//
//	session := stratum.NewSession(gw, stratum.WithCredentials("user", "pass"))
//	session.Connect(ctx)
//	defer session.Close()
//
// Operations issued before the handshake completes are queued and replayed
// in submission order once the session is ready; callers never need to
// wait for readiness themselves.
//
// # Thread Safety
//
// Session is safe for concurrent use from multiple goroutines. Commands
// queued on the same owner execute in strict submission order; commands
// against different Table handles are unordered relative to each other once
// both are ready.
type Session struct {
	gw     gateway.Gateway
	config *SessionConfig

	gate   *gate
	queue  *dispatcher
	closed atomic.Bool

	connectOnce sync.Once

	mu        sync.Mutex
	keyspace  string
	schema    map[string]types.TableDefinition
	observers []schemaObserver

	defaultsMu sync.RWMutex
	defaults   types.ConsistencyPair
}

// NewSession creates a Session bound to the given gateway.
//
// The session starts not-ready: every operation issued before Connect
// completes the handshake is captured on a FIFO queue and replayed in order
// once ready. The gateway is required; options configure everything else.
//
// Parameters:
//   - gw: Gateway implementation owning the transport (required)
//   - opts: Optional configuration options
//
// Returns:
//   - *Session: A new session (never nil for a non-nil gateway)
//   - error: types.ErrNilGateway if gw is nil
func NewSession(gw gateway.Gateway, opts ...Option) (*Session, error) {
	if gw == nil {
		return nil, types.ErrNilGateway
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure logger and metrics are never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	s := &Session{
		gw:       gw,
		config:   config,
		gate:     newGate(),
		defaults: config.DefaultConsistency.Normalized(),
	}
	s.queue = newDispatcher("session", config.QueueCapacity, s.gate, config.Logger, config.Metrics)

	return s, nil
}

// Connect starts the connection handshake: the login exchange when a
// credential is configured, then the readiness flip that drains the
// session's queue.
//
// Connect never fails synchronously. Transport or authentication errors are
// surfaced as an asynchronous failure event: the error handler fires, and
// every queued or future command completes with a *types.HandshakeError.
// Connection establishment is one-shot; subsequent calls are no-ops.
//
// Parameters:
//   - ctx: Context bounding the handshake
func (s *Session) Connect(ctx context.Context) {
	s.connectOnce.Do(func() {
		go s.handshake(ctx)
	})
}

func (s *Session) handshake(ctx context.Context) {
	if s.config.Credentials != nil {
		if err := s.gw.Login(ctx, *s.config.Credentials); err != nil {
			hErr := &types.HandshakeError{Cause: err}
			s.gate.fail(hErr)
			s.config.Logger.Error("login handshake failed", "error", err.Error())
			s.notifyError(hErr)

			return
		}
	}

	s.config.Logger.Info("session ready")
	s.gate.open()
}

// SelectKeyspace makes name the session's active keyspace.
//
// Like every session operation it is queued until the session is ready.
// On execution it switches the gateway's active keyspace, fetches the
// table-definition set, replaces the session's schema metadata wholesale,
// and re-binds every Table handle: handles present in the new keyspace
// become ready again, handles absent from it turn invalid.
//
// Parameters:
//   - ctx: Context for cancellation
//   - name: Keyspace name
//
// Returns:
//   - error: Gateway error from the keyspace switch or schema fetch
func (s *Session) SelectKeyspace(ctx context.Context, name string) error {
	return s.queue.call(ctx, opSelectKeyspace, func(ctx context.Context) error {
		return s.selectKeyspace(ctx, name)
	})
}

func (s *Session) selectKeyspace(ctx context.Context, name string) error {
	if err := s.gw.SetActiveKeyspace(ctx, name); err != nil {
		reqErr := &types.RequestError{Op: "set_keyspace", Cause: err}
		s.config.Logger.Error("keyspace switch failed", "keyspace", name, "error", err.Error())

		return reqErr
	}

	defs, err := s.gw.DescribeSchema(ctx, name)
	if err != nil {
		reqErr := &types.RequestError{Op: "describe_schema", Cause: err}
		s.config.Logger.Error("schema fetch failed", "keyspace", name, "error", err.Error())

		return reqErr
	}

	s.mu.Lock()
	s.keyspace = name
	s.schema = defs
	observers := make([]schemaObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	s.config.Logger.Info("keyspace selected", "keyspace", name, "tables", len(defs))

	for _, o := range observers {
		o.schemaUpdated(name, defs)
	}

	return nil
}

// Table returns a handle for the named table.
//
// The handle registers for schema updates and, when the session already
// holds metadata, binds immediately. Until bound, every operation on the
// handle is queued and replayed in order once the table definition arrives.
// A handle whose table is absent from the keyspace turns invalid: its
// queued commands fail with *types.TableNotFoundError and the session's
// error handler fires.
//
// Parameters:
//   - name: Table (column family) name
//
// Returns:
//   - *Table: The table handle
func (s *Session) Table(name string) *Table {
	t := newTable(s, name)

	s.mu.Lock()
	s.observers = append(s.observers, t)
	keyspace, defs := s.keyspace, s.schema
	s.mu.Unlock()

	if defs != nil {
		t.schemaUpdated(keyspace, defs)
	}

	return t
}

// SetDefaultConsistency replaces the session's default consistency pair.
//
// The setter accepts a partial pair: unset fields fall back to Quorum, not
// to the previous value. Each call fully re-derives both fields.
//
// Parameters:
//   - pair: Read/write levels; zero fields mean Quorum
func (s *Session) SetDefaultConsistency(pair types.ConsistencyPair) {
	derived := pair.Normalized()

	s.defaultsMu.Lock()
	s.defaults = derived
	s.defaultsMu.Unlock()
}

// DefaultConsistency returns the current default consistency pair.
//
// Returns:
//   - types.ConsistencyPair: The session defaults; both fields concrete
func (s *Session) DefaultConsistency() types.ConsistencyPair {
	s.defaultsMu.RLock()
	defer s.defaultsMu.RUnlock()

	return s.defaults
}

// Keyspace returns the active keyspace name, or "" before SelectKeyspace.
func (s *Session) Keyspace() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.keyspace
}

// Close terminates the session and the gateway transport.
//
// No queue flush is attempted: still-queued commands on the session and on
// every table handle complete with ErrSessionClosed. Close is safe to call
// more than once.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.gate.fail(types.ErrSessionClosed)

		s.mu.Lock()
		observers := make([]schemaObserver, len(s.observers))
		copy(observers, s.observers)
		s.mu.Unlock()

		for _, o := range observers {
			o.shutdown()
		}

		s.queue.close()
		s.gw.Close()
		s.config.Logger.Info("session closed")
	}
}

// resolveRead returns the concrete read level for a request: the per-call
// override when set, otherwise the session default.
func (s *Session) resolveRead(override types.Consistency) (types.Consistency, error) {
	if override.IsSet() {
		return override, nil
	}

	cl := s.DefaultConsistency().Read
	if !cl.IsSet() {
		return types.ConsistencyUnset, types.ErrNoConsistency
	}

	return cl, nil
}

// resolveWrite returns the concrete write level for a request.
func (s *Session) resolveWrite(override types.Consistency) (types.Consistency, error) {
	if override.IsSet() {
		return override, nil
	}

	cl := s.DefaultConsistency().Write
	if !cl.IsSet() {
		return types.ConsistencyUnset, types.ErrNoConsistency
	}

	return cl, nil
}

// notifyError delivers an asynchronous failure to the configured handler.
func (s *Session) notifyError(err error) {
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
}

// timestamp returns the next write timestamp.
func (s *Session) timestamp() int64 {
	return s.config.TimestampProvider()
}
