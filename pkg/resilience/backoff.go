package resilience

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy yields the wait before a given retry attempt.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows the delay geometrically with jitter so that
// retrying callers do not realign into synchronized bursts.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// Jitter is the fraction of the delay randomized in both
	// directions, e.g. 0.1 for ±10%.
	Jitter float64
}

// DefaultExponentialBackoff suits upstream accessor retries: 100ms
// doubling per attempt, capped at 30s, ±10% jitter.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay returns BaseDelay * Multiplier^attempt, capped at MaxDelay,
// with jitter applied. Negative attempts get the base delay.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(eb.MaxDelay))

	// Random offset in [-Jitter, +Jitter] of the delay
	delay += delay * eb.Jitter * (rand.Float64()*2 - 1)

	if delay < 0 {
		return eb.BaseDelay
	}
	return time.Duration(delay)
}

// FixedBackoff waits the same duration between every attempt. Tests use
// it to keep retry loops fast and deterministic.
type FixedBackoff struct {
	Delay time.Duration
}

// NextDelay returns the fixed delay.
func (fb *FixedBackoff) NextDelay(attempt int) time.Duration {
	return fb.Delay
}
