package generator

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultMaxAttempts = 2
	defaultRetryDelay  = time.Second
)

// Resilient adds a per-attempt timeout and retry with exponential backoff
// around another generator.
type Resilient struct {
	inner       Generator
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
}

// NewResilient wraps inner using the timeout and retry values from s.
// Zero values fall back to defaults.
func NewResilient(inner Generator, s Settings) *Resilient {
	r := &Resilient{
		inner:       inner,
		timeout:     s.Timeout,
		maxAttempts: s.MaxAttempts,
		retryDelay:  s.RetryDelay,
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.retryDelay <= 0 {
		r.retryDelay = defaultRetryDelay
	}
	return r
}

func (r *Resilient) Name() string {
	return r.inner.Name()
}

func (r *Resilient) Generate(ctx context.Context, instructions string, input map[string]any) (string, error) {
	rt := retry.New[string](retry.Config{
		MaxAttempts:   r.maxAttempts,
		InitialDelay:  r.retryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	to := timeout.New[string](timeout.Config{
		DefaultTimeout: r.timeout,
	})

	// Each attempt gets the full timeout; a timed-out attempt is retried.
	out, err := rt.Do(ctx, func(ctx context.Context) (string, error) {
		return to.Execute(ctx, r.timeout, func(ctx context.Context) (string, error) {
			return r.inner.Generate(ctx, instructions, input)
		})
	})
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &GenerationError{Provider: r.inner.Name(), Err: err}
	}
	return out, nil
}
