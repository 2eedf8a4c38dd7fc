// Package httputil provides retry helpers for the outbound proxy client.
//
// [Retry] wraps a request with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried; everything else is
// returned on the first attempt. The delay doubles after each failure:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    return doRequest()
//	})
//
// The proxy client defaults to a single attempt so that an unavailable
// provider falls through to synthetic data without delay; retries are
// enabled with the http.retries configuration key.
package httputil
