// Package vm provides a VictoriaMetrics-based implementation of the
// types.MetricsCollector interface.
//
// The collector exposes per-table read/write counters and duration
// histograms, range enumeration page counters, and per-owner command
// queue counters, all in Prometheus exposition format.
//
// # Basic Usage
//
//	collector := vm.New()
//	session, err := stratum.NewSession(gw, stratum.WithMetrics(collector))
//
//	// Expose metrics over HTTP:
//	http.HandleFunc("/metrics", collector.Handler)
//
// # Custom Prefix
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// # Sharing a Metrics Set
//
// When the application already manages a metrics.Set, pass it in so all
// metrics land in one place:
//
//	set := metrics.NewSet()
//	collector := vm.New(vm.WithMetricsSet(set))
package vm
