/*
Package observability exports editor workflows and scenario runs as Prometheus
metrics and structured log lines.

Metrics and LoggingHooks both produce domain.LifecycleHooks; an Aggregator
fans hooks and step results out to any number of observers so that a single
runner option wires them all.
*/
package observability
