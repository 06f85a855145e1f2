package translation

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy returns a fresh backoff for one Translate call. Backoffs are
// stateful, so each call needs its own.
type RetryPolicy func() retry.Backoff

// DefaultRetryDelay is the pause before the second attempt
const DefaultRetryDelay = time.Second

// FixedRetry allows maxRetries further attempts after the first, waiting
// delay between them
func FixedRetry(maxRetries uint64, delay time.Duration) RetryPolicy {
	return func() retry.Backoff {
		var b retry.Backoff = retry.BackoffFunc(func() (time.Duration, bool) {
			return delay, false
		})
		return retry.WithMaxRetries(maxRetries, b)
	}
}

// DefaultRetryPolicy makes two attempts in total, one second apart
func DefaultRetryPolicy() RetryPolicy {
	return FixedRetry(1, DefaultRetryDelay)
}
