// Package metrics provides build observability for dist.
//
// Components receive a Recorder through their dependencies and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	deps := build.Deps{Recorder: metrics.NoopRecorder{}}
//
// When metrics are enabled (metrics.enabled in the config file) the CLI
// swaps in a PrometheusRecorder and the dev server exposes HTTPHandler at
// metrics.path.
package metrics
