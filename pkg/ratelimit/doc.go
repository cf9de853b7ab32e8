// Package ratelimit throttles requests to the vendor APIs.
//
// Both vendors publish soft limits rather than hard quotas, so a single
// client-side limiter per API client is enough. The Limiter interface is
// satisfied by a token bucket built on golang.org/x/time/rate:
//
//	limiter := ratelimit.PerMinute(60, 5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
//
// Unlimited() returns a limiter that never blocks, used in tests.
package ratelimit
