package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	errs "energystats/pkg/errors"
)

// MaxRetryAfter caps how long a server's Retry-After can hold up a retry
const MaxRetryAfter = 2 * time.Minute

// BackoffStrategy decides how long to wait after a failed attempt
type BackoffStrategy interface {
	// NextDelay returns the wait before the attempt that follows attempt
	NextDelay(attempt int) time.Duration
}

// BackoffFunc adapts a function to BackoffStrategy
type BackoffFunc func(attempt int) time.Duration

// NextDelay calls f
func (f BackoffFunc) NextDelay(attempt int) time.Duration {
	return f(attempt)
}

// ExponentialBackoff grows the delay from BaseDelay by Multiplier per attempt
// until MaxDelay, then spreads it by up to JitterFactor either way so that
// parallel day fetches do not retry in lockstep.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64

	// Rand returns values in [0, 1); nil uses math/rand/v2
	Rand func() float64
}

// DefaultExponentialBackoff returns 1s, 2s, 4s ... up to 30s with 10% jitter
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

// NextDelay implements BackoffStrategy. Attempts below 1 wait nothing.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 || eb.BaseDelay <= 0 {
		return 0
	}
	multiplier := eb.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	// grow step by step so large attempts cannot overflow
	delay := float64(eb.BaseDelay)
	limit := float64(eb.MaxDelay)
	for i := 1; i < attempt && (limit <= 0 || delay < limit); i++ {
		delay *= multiplier
	}
	if limit > 0 && delay > limit {
		delay = limit
	}

	if eb.JitterFactor > 0 {
		random := rand.Float64
		if eb.Rand != nil {
			random = eb.Rand
		}
		delay *= 1 + eb.JitterFactor*(2*random()-1)
	}
	return time.Duration(max(delay, 0))
}

// ConstantBackoff waits Delay between every attempt
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay implements BackoffStrategy
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// delayFor returns the backoff delay after attempt, extended to the
// Retry-After carried by err up to MaxRetryAfter
func delayFor(backoff BackoffStrategy, attempt int, err error) time.Duration {
	delay := backoff.NextDelay(attempt)

	var apiErr *errs.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > delay {
		delay = min(apiErr.RetryAfter, MaxRetryAfter)
	}
	return delay
}

// Wait blocks for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
