package jitter

import (
	"math/rand/v2"
	"time"
)

const DefaultMaxMs = 3500

// maxShift keeps baseMs << attempts from overflowing.
const maxShift = 30

// Jitter returns a random delay in [0, min(maxMs, baseMs * 2^attempts)).
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func Jitter(baseMs, maxMs, attempts int) time.Duration {
	if maxMs <= 0 {
		return time.Duration(0)
	}

	if attemptsMaxMs := baseMs << min(max(attempts, 0), maxShift); attemptsMaxMs > 0 {
		maxMs = min(maxMs, attemptsMaxMs)
	}

	return time.Duration(rand.IntN(maxMs)) * time.Millisecond
}
