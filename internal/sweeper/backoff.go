package sweeper

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff: attempt 0 => 2s, 1 => 4s, 2 => 8s, capped at 5m, plus
// up to 250ms of jitter.
func ExponentialBackoff(attempt int) time.Duration {
	base := 2 * time.Second
	capDelay := 5 * time.Minute

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
