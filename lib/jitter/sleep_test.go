package jitter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitter(t *testing.T) {
	// maxMs <= 0 returns time.Duration(0)
	assert.Equal(t, time.Duration(0), Jitter(10, 0, 0))
	assert.Equal(t, time.Duration(0), Jitter(10, 0, 100))
	assert.Equal(t, time.Duration(0), Jitter(10, -1, 0))
	{
		// The cap grows with attempts
		for range 100 {
			assert.Less(t, Jitter(10, 1000, 0), 10*time.Millisecond)
			assert.Less(t, Jitter(10, 1000, 2), 40*time.Millisecond)
			assert.Less(t, Jitter(10, 1000, 20), 1000*time.Millisecond)
		}
	}
	{
		// A very large number of attempts does not panic.
		assert.Less(t, Jitter(10, 100, math.MaxInt), 100*time.Millisecond)
		assert.Less(t, Jitter(10, 100, -5), 10*time.Millisecond)
	}
	{
		// Zero base falls back to maxMs
		assert.Less(t, Jitter(0, 50, 3), 50*time.Millisecond)
	}
}
