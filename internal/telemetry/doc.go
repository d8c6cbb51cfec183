// Package telemetry wraps OpenTelemetry SDK initialization, providing the
// engine's TracerProvider and MeterProvider. When telemetry is disabled the
// global providers stay noop and nothing connects to an external collector.
package telemetry
