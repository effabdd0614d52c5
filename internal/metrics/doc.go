// Package metrics exposes Prometheus collectors for audit runs: rule
// executions, judged cases, per-stage binding counts and query latency.
package metrics
