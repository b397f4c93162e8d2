package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// bounded runs fn with a deadline and stops waiting once it passes, even if
// fn ignores its context. Errors from fn are returned unchanged.
func bounded[T any](ctx context.Context, timeout time.Duration, what string, fn func(context.Context) (T, error)) (T, error) {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{zero, fmt.Errorf("%s panicked: %v", what, r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("%s timed out after %s", what, timeout)
		}
		return zero, fmt.Errorf("%s: %w", what, ctx.Err())
	}
}
