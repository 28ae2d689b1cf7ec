package research

import (
	"context"
	"errors"
	"time"

	"github.com/notemill/notemill/internal/domain"
)

// callWithRetry runs fn with a per-attempt timeout, retrying up to
// retryAttempts extra times after a fixed backoff — but only for transient
// failures (timeouts, 429, 5xx). Permanent failures (other 4xx) return
// immediately. The parent ctx is the hard ceiling: once it expires, the
// in-flight attempt is cancelled and no further attempt starts.
func callWithRetry[T any](
	ctx context.Context,
	stageTimeout time.Duration,
	retryAttempts int,
	backoff time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, lastErr
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, stageTimeout)
		out, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTransient(err) {
			break
		}
	}

	return zero, lastErr
}

// isTransient classifies a stage error for retry. Stage-timeout expiry
// (context deadline without a provider status) counts as transient.
func isTransient(err error) bool {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
