// Package metrics provides build metrics for sitesmith.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder forwards to a Prometheus
// registry that the watch command's dev server exposes on /metrics.
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	builder := site.New(cfg, site.WithRecorder(recorder))
package metrics
