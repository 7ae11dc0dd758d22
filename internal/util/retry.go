// ABOUTME: Retry utilities for generator calls with exponential backoff
// ABOUTME: Shared by the LLM client and the availability prober
package util

import (
	"math/rand/v2"
	"time"
)

// maxBackoff bounds the sleep between retries regardless of attempt count.
const maxBackoff = 30 * time.Second

// CalculateBackoff returns how long to sleep before retry number attempt:
// the base delay doubled per attempt with -25% to +25% jitter, capped at
// 30 seconds. A non-positive attempt or base delay returns 0, so callers
// configured with a zero retry delay retry immediately instead of
// tripping the jitter draw on an empty interval.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30 // shift guard
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}
