// Package tracing wraps OpenTelemetry so allocator, scheduler and safety
// operations can open spans without importing the SDK directly. Spans are
// no-ops until Init or InitWithExporter installs a provider.
package tracing
