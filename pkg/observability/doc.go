// Package observability provides logging and metrics for the gantry
// runtime.
//
// # Overview
//
// Logging is structured logging via logrus; NewLogger configures level
// and format from the environment. Metrics are Prometheus collectors
// registered against a dedicated registry so hosts can expose them on
// whatever endpoint they choose (the builtin webserver plugin serves
// them on /metrics).
//
// # Metrics
//
// gantry_operation_invocations_total{operation, strategy}
// gantry_step_executions_total{operation, step, status}
// gantry_step_duration_seconds{operation, step}
// gantry_plugins_loaded
// gantry_lifecycle_state
package observability
