package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	JitterMin = 0.1
	JitterMax = 0.3
)

// Backoff computes exponentially growing retry delays.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

var DefaultBackoff = Backoff{
	Base: time.Second,
	Max:  60 * time.Second,
}

// Delay returns base * 2^attempt, extended by the given jitter fraction and
// capped at Max.
func (b Backoff) Delay(attempt int, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(b.Base) * math.Pow(2, float64(attempt))
	delay += delay * jitter

	if b.Max > 0 && delay > float64(b.Max) {
		return b.Max
	}

	return time.Duration(delay)
}

// Next returns the delay for attempt with a random jitter fraction in
// [JitterMin, JitterMax).
func (b Backoff) Next(attempt int) time.Duration {
	return b.Delay(attempt, JitterMin+rand.Float64()*(JitterMax-JitterMin))
}
