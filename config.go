package stratum

import (
	"time"

	"github.com/arloliu/stratum/internal/logging"
	"github.com/arloliu/stratum/internal/metrics"
	"github.com/arloliu/stratum/types"
)

// TimestampProvider generates timestamps for write operations.
//
// The default provider uses time.Now().UnixMicro().
type TimestampProvider func() int64

// DefaultTimestampProvider returns the current time in microseconds.
func DefaultTimestampProvider() int64 {
	return time.Now().UnixMicro()
}

// NewScaledTimestampProvider returns a provider that multiplies the current
// wall-clock milliseconds by the given factor.
//
// Scaling trades wall-clock fidelity for ordering safety: with a multiplier
// of 1000 two writes issued within the same millisecond still tend to get
// distinct, strictly increasing timestamps on the wire.
//
// Parameters:
//   - multiplier: Factor applied to time.Now().UnixMilli()
//
// Returns:
//   - TimestampProvider: The scaled provider
func NewScaledTimestampProvider(multiplier int64) TimestampProvider {
	return func() int64 {
		return time.Now().UnixMilli() * multiplier
	}
}

// ErrorHandler receives asynchronous failures that have no caller to return
// to: handshake failures and schema-missing failures on table handles.
type ErrorHandler func(err error)

// SessionConfig holds configuration for a Session.
type SessionConfig struct {
	// Credentials is the optional login credential. When nil, Connect skips
	// the authentication handshake.
	Credentials *types.Credentials

	// DefaultConsistency is the session-wide consistency pair. Unset fields
	// are normalized to Quorum.
	DefaultConsistency types.ConsistencyPair

	// QueueCapacity bounds each owner's command queue.
	QueueCapacity int

	// TimestampProvider generates write timestamps.
	TimestampProvider TimestampProvider

	// OnError receives asynchronous failure events.
	OnError ErrorHandler

	// Logger receives structured log messages.
	Logger types.Logger

	// Metrics receives operational metrics.
	Metrics types.MetricsCollector
}

// DefaultConfig returns a SessionConfig with sensible defaults: Quorum
// read/write consistency, queue capacity 1024, microsecond timestamps, and
// no-op logging and metrics.
//
// Returns:
//   - *SessionConfig: Configuration with default settings
func DefaultConfig() *SessionConfig {
	return &SessionConfig{
		DefaultConsistency: types.ConsistencyPair{Read: types.Quorum, Write: types.Quorum},
		QueueCapacity:      1024,
		TimestampProvider:  DefaultTimestampProvider,
		Logger:             logging.NewNopLogger(),
		Metrics:            metrics.NewNopMetrics(),
	}
}

// Option configures a SessionConfig.
type Option func(*SessionConfig)

// WithCredentials sets the login credential used by Connect.
//
// Parameters:
//   - username: Login user
//   - password: Login password
//
// Returns:
//   - Option: Configuration option
func WithCredentials(username, password string) Option {
	return func(c *SessionConfig) {
		c.Credentials = &types.Credentials{Username: username, Password: password}
	}
}

// WithDefaultConsistency sets the session-wide consistency pair.
//
// Unset fields fall back to Quorum, matching SetDefaultConsistency.
//
// Parameters:
//   - pair: Read/write levels; zero fields mean Quorum
//
// Returns:
//   - Option: Configuration option
func WithDefaultConsistency(pair types.ConsistencyPair) Option {
	return func(c *SessionConfig) {
		c.DefaultConsistency = pair.Normalized()
	}
}

// WithQueueCapacity bounds each owner's command queue.
//
// Commands submitted to a full queue fail immediately with ErrQueueFull.
//
// Parameters:
//   - n: Queue capacity (default: 1024)
//
// Returns:
//   - Option: Configuration option
func WithQueueCapacity(n int) Option {
	return func(c *SessionConfig) {
		if n > 0 {
			c.QueueCapacity = n
		}
	}
}

// WithTimestampProvider sets the write timestamp generator.
//
// Parameters:
//   - fn: Function that returns the timestamp for the next mutation
//
// Returns:
//   - Option: Configuration option
func WithTimestampProvider(fn TimestampProvider) Option {
	return func(c *SessionConfig) {
		c.TimestampProvider = fn
	}
}

// WithErrorHandler sets the handler for asynchronous failure events.
//
// Handshake failures and schema-missing failures complete no caller's call;
// they are delivered here (and logged) instead.
//
// Parameters:
//   - handler: Function called with the failure
//
// Returns:
//   - Option: Configuration option
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *SessionConfig) {
		c.OnError = handler
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// The logger interface is compatible with zap.SugaredLogger.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
func WithLogger(logger types.Logger) Option {
	return func(c *SessionConfig) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *SessionConfig) {
		c.Metrics = collector
	}
}
