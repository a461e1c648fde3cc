package notification

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds delivery attempts with exponential backoff.
// MaxAttempts counts the first try; a policy of 3 attempts retries
// twice. The backoff doubles from Base on each failure.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
}

// DefaultRetryPolicy matches the delivery behavior of the email queue:
// three attempts, starting one minute apart and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Base:        60 * time.Second,
	}
}

// Run executes fn until it succeeds or the attempt budget is spent,
// sleeping exponentially longer between attempts. Every error from fn
// counts as retryable; callers decide what is permanent before calling
// Run. The last error is returned unwrapped when the budget runs out.
func (p RetryPolicy) Run(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
