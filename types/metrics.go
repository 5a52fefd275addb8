package types

// MetricsCollector defines methods for collecting operational metrics.
//
// All table-scoped methods accept the table name for labeling; queue-scoped
// methods accept the owner name ("session" or "table:<name>").
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	session := stratum.NewSession(gw, stratum.WithMetrics(collector))
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Read Operations (get, count)
	// ----------------------

	// IncReadTotal increments the total read operations counter.
	IncReadTotal(table string)

	// IncReadError increments the read error counter.
	IncReadError(table string)

	// ObserveReadDuration records a read operation duration in seconds.
	ObserveReadDuration(table string, seconds float64)

	// ----------------------
	// Write Operations (set, remove, truncate)
	// ----------------------

	// IncWriteTotal increments the total write operations counter.
	IncWriteTotal(table string)

	// IncWriteError increments the write error counter.
	IncWriteError(table string)

	// ObserveWriteDuration records a write operation duration in seconds.
	ObserveWriteDuration(table string, seconds float64)

	// ----------------------
	// Range Enumeration
	// ----------------------

	// IncRangePageTotal increments the fetched range page counter.
	IncRangePageTotal(table string)

	// IncRangePageError increments the range page error counter.
	IncRangePageError(table string)

	// ----------------------
	// Command Queue
	// ----------------------

	// IncCommandQueued increments the queued command counter for an owner.
	IncCommandQueued(owner string)

	// IncCommandDrained increments the drained command counter for an owner.
	IncCommandDrained(owner string)
}
