// Package telemetry turns registry operations into metrics.
//
// Metrics exports Prometheus counters and histograms on its own registry
// (served by the API at /metrics). InfluxSink forwards the same
// observations to InfluxDB as time-series points. Fanout combines several
// registry.Observer values so both can be attached at once.
package telemetry
