// Package retry retries transient failures of vendor API calls with
// exponential backoff.
//
// Errors are classified through pkg/errors. An HTTP status decides first:
// 408, 429 and 5xx are retried. Without one, network, rate limit and server
// errors are retried and everything else (auth, not found, parsing) fails at
// once. Context cancellation is never retried. A Retry-After sent with a 429
// or 503 stretches the next delay, up to MaxRetryAfter.
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return fetch(ctx, url)
//	}, cfg)
package retry
