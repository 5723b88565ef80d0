// Package retry wraps network-facing calls with bounded exponential backoff.
package retry

import (
	"context"
	"strings"
	"time"

	"server/internal/domain"
)

// Policy controls the retry behaviour of Do.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the first retry; subsequent waits
	// double (BaseDelay << attemptIndex, zero-indexed).
	BaseDelay time.Duration
	// ShouldRetry decides whether a failure is worth another attempt.
	// Nil means Transient (see below). Validation and policy rejections
	// are never retried regardless of this predicate.
	ShouldRetry func(error) bool
}

// Transient is the default predicate: retry only transport-class failures.
// Besides the domain TRANSIENT kind it matches the message fragments the
// provider uses for network, timeout and server-error conditions.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if domain.IsKind(err, domain.KindTransient) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "network") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "server error") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unavailable")
}

// neverRetry covers failure classes for which another attempt cannot
// succeed, whatever the configured predicate says.
func neverRetry(err error) bool {
	return domain.IsKind(err, domain.KindValidation) ||
		domain.IsKind(err, domain.KindPolicyRejected)
}

// Do runs fn up to p.MaxAttempts times. The error surfaced after exhaustion
// is the last attempt's error, untouched; no aggregation.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	predicate := p.ShouldRetry
	if predicate == nil {
		predicate = Transient
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if neverRetry(err) || !predicate(err) || attempt == attempts-1 {
			return zero, err
		}
		if err := sleep(ctx, p.BaseDelay<<attempt); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
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
