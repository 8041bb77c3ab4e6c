// Package logger provides structured logging for the session store.
//
// It wraps log/slog:
//
//   - logger.go: handler construction and dynamic level control
//   - redact.go: sensitive data redaction
//
// Session document keys and cookie material are masked automatically, so
// callers can log identifiers without leaking bearer credentials.
package logger
