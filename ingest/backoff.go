package ingest

import "time"

// computeBackoff returns a doubling backoff for the numRetries-th retry,
// capped at maxBackoff. numRetries is zero-based.
func computeBackoff(numRetries int, base, maxBackoff time.Duration) time.Duration {
	d := base
	for i := 0; i < numRetries; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

const (
	defaultBackoffBase = 100 * time.Millisecond
	defaultBackoffCap  = 10 * time.Second
)
