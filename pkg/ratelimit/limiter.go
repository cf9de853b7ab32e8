package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket is a Limiter refilling at a steady rate up to a burst size
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a bucket holding burst tokens and refilling one token every interval
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// PerMinute creates a bucket allowing requestsPerMinute on average
func PerMinute(requestsPerMinute, burst int) *TokenBucket {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return NewTokenBucket(time.Minute/time.Duration(requestsPerMinute), burst)
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Unlimited returns a Limiter that never blocks
func Unlimited() Limiter {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, 0)}
}
