// Package retry provides retry logic with configurable backoff strategies.
//
// It supports exponential, linear and constant backoff with jitter,
// context-aware cancellation, and server-supplied delay hints: an error that
// implements RetryAfterProvider (e.g. a 429 response carrying a Retry-After
// header) overrides the computed backoff for that attempt.
//
// Usage:
//
//	cfg := retry.DefaultConfig()
//	cfg.MaxAttempts = 5
//	err := retry.Do(func() error {
//	    return client.GetItem(ctx, collection, id)
//	}, cfg)
package retry
