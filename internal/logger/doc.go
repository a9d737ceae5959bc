// Package logger provides a structured logging solution using the Zap logging library.
// It wraps a process-wide sugared logger with an atomic level, and lets callers
// attach key-value fields to a context so that request-scoped data such as
// request IDs follows every record written for that request.
package logger
