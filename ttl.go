package cloudantstore

// DefaultTTLSeconds is the fallback time-to-live when neither the payload
// nor the configuration specifies one: one day.
const DefaultTTLSeconds = 86400

// ttlSeconds computes a record's time-to-live in whole seconds.
//
// A numeric cookie max-age in the payload (milliseconds, under
// cookie.maxAge) wins; otherwise the configured default applies; otherwise
// one day. Exactly one of the three, in that order.
func ttlSeconds(payload Payload, configuredDefault int64) int64 {
	if maxAge, ok := cookieMaxAge(payload); ok {
		return maxAge / 1000
	}
	if configuredDefault > 0 {
		return configuredDefault
	}
	return DefaultTTLSeconds
}

// cookieMaxAge extracts cookie.maxAge milliseconds from a session payload.
// JSON decoding may surface the number as float64, int, or int64.
func cookieMaxAge(payload Payload) (int64, bool) {
	cookie, ok := payload["cookie"].(map[string]any)
	if !ok {
		return 0, false
	}
	return toInt64(cookie["maxAge"])
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	default:
		return 0, false
	}
}
