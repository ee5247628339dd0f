// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// PermanentError marks an error as not worth retrying. Do unwraps it
// before returning so callers match on the inner error.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that Do stops immediately.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// Do calls fn up to maxAttempts times. Between attempts it sleeps
// baseDelay doubled per attempt, with 25% jitter either way. It returns
// nil on the first success, the inner error for a Permanent failure, the
// context error if ctx ends during backoff, and otherwise the last error
// once attempts are exhausted. maxAttempts below 1 is treated as 1.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var pe *PermanentError
		if errors.As(lastErr, &pe) {
			return pe.Err
		}
		if attempt == maxAttempts {
			return lastErr
		}

		if err := sleep(ctx, jittered(baseDelay<<(attempt-1))); err != nil {
			return err
		}
	}
}

// jittered spreads d across [0.75d, 1.25d].
func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	span := d / 2
	return d - span/2 + time.Duration(rand.Int64N(int64(span)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
