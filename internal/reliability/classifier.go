// Package reliability classifies transient completion failures so the
// LLM client can retry rate limits and upstream outages instead of
// surfacing them as a failed turn.
package reliability

import "time"

// IsRetryableHTTPStatus reports whether a completion request that failed
// with this status is worth retrying.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
