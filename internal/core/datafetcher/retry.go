package datafetcher

import (
	"context"
	"errors"
	"math"
	"time"
)

// classifiedError tags an upstream error as retryable or terminal, mirroring
// failure modes (NotFound/RateLimited/Upstream/ParseError).
type classifiedError struct {
	retryable bool
	err error
}

// ErrNotFound signals an unknown symbol; never retried.
var ErrNotFound = errors.New("not found")

// ErrRateLimited signals a transient provider back-off condition; retried.
var ErrRateLimited = errors.New("rate limited")

// ErrUpstream signals a transient provider/timeout error; retried.
var ErrUpstream = errors.New("upstream error")

// ErrParse signals a malformed payload; never retried (the provider is
// broken for this request, not merely busy).
var ErrParse = errors.New("parse error")

func classify(err error) classifiedError {
	switch {
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrUpstream):
		return classifiedError{retryable: true, err: err}
	default:
		return classifiedError{retryable: false, err: err}
	}
}

// withRetry runs fn with exponential backoff up to cfg.MaxAttempts, retrying
// only RateLimited/Upstream failures.
// Cancellation is checked before every attempt.
func withRetry[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		classified := classify(err)
		lastErr = classified.err
		if !classified.retryable || attempt == attempts-1 {
			return zero, lastErr
		}

		backoff := time.Duration(cfg.BackoffBaseMS) * time.Millisecond * time.Duration(math.Pow(2, float64(attempt)))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
