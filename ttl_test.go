package cloudantstore

import "testing"

func TestTTLSeconds_Priority(t *testing.T) {
	tests := []struct {
		name       string
		payload    Payload
		configured int64
		want       int64
	}{
		{
			name:    "cookie max-age wins",
			payload: Payload{"cookie": map[string]any{"maxAge": 61_000}},
			want:    61,
		},
		{
			name:       "cookie max-age wins over configured default",
			payload:    Payload{"cookie": map[string]any{"maxAge": float64(90_500)}},
			configured: 7200,
			want:       90,
		},
		{
			name:       "configured default when no max-age",
			payload:    Payload{"user": "u1"},
			configured: 7200,
			want:       7200,
		},
		{
			name:    "one day fallback",
			payload: Payload{"user": "u1"},
			want:    86400,
		},
		{
			name:       "non-numeric max-age falls through",
			payload:    Payload{"cookie": map[string]any{"maxAge": "soon"}},
			configured: 7200,
			want:       7200,
		},
		{
			name:    "cookie without max-age falls through",
			payload: Payload{"cookie": map[string]any{"path": "/"}},
			want:    86400,
		},
		{
			name:    "sub-second max-age floors to zero",
			payload: Payload{"cookie": map[string]any{"maxAge": 900}},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ttlSeconds(tt.payload, tt.configured); got != tt.want {
				t.Errorf("ttlSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}
