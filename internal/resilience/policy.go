package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy is the single outbound-call policy shared by every remote client:
// bounded retries with linear backoff, a retryable-error predicate and a cap
// on concurrent in-flight calls.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration

	sem chan struct{}
}

const (
	DefaultMaxAttempts = 2
	DefaultBackoff     = 500 * time.Millisecond
	DefaultTimeout     = 6 * time.Second
	DefaultMaxInFlight = 3
)

func New() *Policy {
	return &Policy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
		Timeout:     DefaultTimeout,
		sem:         make(chan struct{}, DefaultMaxInFlight),
	}
}

// permanentError marks a failure that must not be retried, such as a 404 or a
// rejected request body.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Do gives up immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn under the concurrency cap, retrying transient failures. Each
// attempt gets its own deadline. The backoff grows linearly with the attempt
// number.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(p.Backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}
