package vm

import (
	"fmt"
	"io"
	"net/http"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/stratum/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "stratum"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Table and queue-owner labels are dynamic, so metrics are created lazily
// on first use per label value. Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string
}

// Compile-time assertion that Collector implements types.MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// When no set is provided, the collector creates its own metrics.Set and
// registers it globally.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	session, _ := stratum.NewSession(gw, stratum.WithMetrics(collector))
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "stratum",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	return c
}

// Set returns the underlying metrics set.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) counter(name, label, value string) *metrics.Counter {
	return c.set.GetOrCreateCounter(fmt.Sprintf(`%s_%s{%s=%q}`, c.prefix, name, label, value))
}

func (c *Collector) histogram(name, label, value string) *metrics.Histogram {
	return c.set.GetOrCreateHistogram(fmt.Sprintf(`%s_%s{%s=%q}`, c.prefix, name, label, value))
}

// ----------------------
// Read Operations
// ----------------------

// IncReadTotal increments the total read operations counter.
func (c *Collector) IncReadTotal(table string) {
	c.counter("read_total", "table", table).Inc()
}

// IncReadError increments the read error counter.
func (c *Collector) IncReadError(table string) {
	c.counter("read_errors_total", "table", table).Inc()
}

// ObserveReadDuration records a read operation duration in seconds.
func (c *Collector) ObserveReadDuration(table string, seconds float64) {
	c.histogram("read_duration_seconds", "table", table).Update(seconds)
}

// ----------------------
// Write Operations
// ----------------------

// IncWriteTotal increments the total write operations counter.
func (c *Collector) IncWriteTotal(table string) {
	c.counter("write_total", "table", table).Inc()
}

// IncWriteError increments the write error counter.
func (c *Collector) IncWriteError(table string) {
	c.counter("write_errors_total", "table", table).Inc()
}

// ObserveWriteDuration records a write operation duration in seconds.
func (c *Collector) ObserveWriteDuration(table string, seconds float64) {
	c.histogram("write_duration_seconds", "table", table).Update(seconds)
}

// ----------------------
// Range Enumeration
// ----------------------

// IncRangePageTotal increments the fetched range page counter.
func (c *Collector) IncRangePageTotal(table string) {
	c.counter("range_pages_total", "table", table).Inc()
}

// IncRangePageError increments the range page error counter.
func (c *Collector) IncRangePageError(table string) {
	c.counter("range_page_errors_total", "table", table).Inc()
}

// ----------------------
// Command Queue
// ----------------------

// IncCommandQueued increments the queued command counter for an owner.
func (c *Collector) IncCommandQueued(owner string) {
	c.counter("commands_queued_total", "owner", owner).Inc()
}

// IncCommandDrained increments the drained command counter for an owner.
func (c *Collector) IncCommandDrained(owner string) {
	c.counter("commands_drained_total", "owner", owner).Inc()
}
