// Package metrics provides observability hooks for the moon dial.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default so callers never nil-check; the daemon swaps in a
// PrometheusRecorder when monitoring.metrics.enabled is set and serves it
// through HTTPHandler.
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	machine := dial.NewMachine(slot, dial.WithRecorder(recorder))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
