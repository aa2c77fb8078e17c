// Package observability provides logging, metrics, health checks and
// OpenTelemetry initialization.
//
// The Logger wraps stdlib slog with a JSON handler and a small fluent API
// (WithField, WithError). Metrics are Prometheus collectors registered on a
// caller-supplied registry; authorization guard decisions are counted here
// by the HTTP layer, never by the authz package itself.
package observability
