// Package retry runs fallible operations with a bounded number of attempts
// and linear backoff.
//
// The executor does not classify errors by itself. Callers that know some
// errors are not worth retrying pass WithRetryIf; everything else is retried
// until the attempt budget is spent.
//
//	exec := retry.New(3, time.Second, retry.WithRetryIf(catalog.IsRetryable))
//	detail, err := retry.Do(ctx, exec, func(ctx context.Context) (catalog.Detail, error) {
//	    return src.FetchDetail(ctx, cred, item)
//	})
package retry

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt budget used when none is configured.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the backoff unit used when none is configured.
	DefaultBaseDelay = time.Second
)

// Executor retries operations. The zero value is not usable; use New.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
	retryIf     func(error) bool
	onRetry     func(attempt int, err error, wait time.Duration)
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customises an Executor.
type Option func(*Executor)

// WithRetryIf limits retries to errors accepted by pred. Rejected errors are
// returned immediately.
func WithRetryIf(pred func(error) bool) Option {
	return func(e *Executor) {
		e.retryIf = pred
	}
}

// WithOnRetry registers a hook called before each backoff wait.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(e *Executor) {
		e.onRetry = fn
	}
}

// WithSleep replaces the wait function. Tests use it to record waits.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = fn
	}
}

// New builds an Executor. Non-positive arguments fall back to the defaults.
func New(maxAttempts int, baseDelay time.Duration, opts ...Option) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	e := &Executor{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxAttempts returns the attempt budget.
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Run calls op until it succeeds or the attempt budget is spent.
//
// After attempt i (1-indexed) fails and is not the last, Run waits
// baseDelay*i. The error of the final attempt is returned unmodified.
func (e *Executor) Run(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do is the value-returning form of Executor.Run.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == e.maxAttempts {
			break
		}
		if e.retryIf != nil && !e.retryIf(err) {
			return result, err
		}

		wait := e.baseDelay * time.Duration(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, wait)
		}
		if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
			return result, sleepErr
		}
	}
	return result, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
