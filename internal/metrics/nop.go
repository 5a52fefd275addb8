// Package metrics provides internal metrics utilities for Stratum.
package metrics

import "github.com/arloliu/stratum/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is
// configured, avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Read Operations
// ----------------------

// IncReadTotal discards the metric.
func (m *NopMetrics) IncReadTotal(_ string) {}

// IncReadError discards the metric.
func (m *NopMetrics) IncReadError(_ string) {}

// ObserveReadDuration discards the metric.
func (m *NopMetrics) ObserveReadDuration(_ string, _ float64) {}

// ----------------------
// Write Operations
// ----------------------

// IncWriteTotal discards the metric.
func (m *NopMetrics) IncWriteTotal(_ string) {}

// IncWriteError discards the metric.
func (m *NopMetrics) IncWriteError(_ string) {}

// ObserveWriteDuration discards the metric.
func (m *NopMetrics) ObserveWriteDuration(_ string, _ float64) {}

// ----------------------
// Range Enumeration
// ----------------------

// IncRangePageTotal discards the metric.
func (m *NopMetrics) IncRangePageTotal(_ string) {}

// IncRangePageError discards the metric.
func (m *NopMetrics) IncRangePageError(_ string) {}

// ----------------------
// Command Queue
// ----------------------

// IncCommandQueued discards the metric.
func (m *NopMetrics) IncCommandQueued(_ string) {}

// IncCommandDrained discards the metric.
func (m *NopMetrics) IncCommandDrained(_ string) {}
