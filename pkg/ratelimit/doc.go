// Package ratelimit provides rate limiting for DDS API calls and downloads.
//
// Available Implementations:
//
// Interval:
//   - Enforces a minimum spacing between consecutive requests
//   - Maps directly to a requests-per-second cap; the limiter used for
//     item metadata fetches
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Cap item fetches at 4 requests per second
//	limiter := ratelimit.NewInterval(4)
//	limiter.Wait()
//	// Proceed with request
package ratelimit
