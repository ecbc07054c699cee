// Package otel exposes sessionauth counters and the validate-latency
// histogram as OpenTelemetry observable instruments.
//
// [NewExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per cumulative histogram bucket. A single callback
// reads [sessionauth.Engine.MetricsSnapshot] on each collection cycle.
//
// The caller owns the MeterProvider.
package otel
