package logger

import (
	"log/slog"
	"strings"
)

// Value prefixes that mark a string as a session identifier. The document
// key carries the session ID, which is the bearer credential for the
// session, so it never appears whole in a log line.
var sensitiveValuePrefixes = []string{
	"sess:",
}

// Key patterns that mark an attribute as sensitive regardless of value.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"cookie",
	"credential",
	"auth",
	"encryption_key",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data and
// redacts it if necessary. Prefix-based masking takes priority so session
// IDs stay partially correlatable across log lines.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(strVal, prefix) {
				return slog.String(a.Key, maskValue(strVal, prefix))
			}
		}

		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if strVal != "" {
					return slog.String(a.Key, redactedValue)
				}
				break
			}
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue partially masks a sensitive value, keeping the prefix plus the
// first and last three characters of the body.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) > 6 {
		return prefix + body[:3] + "..." + body[len(body)-3:]
	}
	return prefix + "***"
}

// RedactSessionID masks a session document key for use outside the slog
// pipeline, e.g. in error details.
func RedactSessionID(id string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(id, prefix) {
			return maskValue(id, prefix)
		}
	}
	if len(id) > 6 {
		return id[:3] + "..." + id[len(id)-3:]
	}
	return "***"
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
