package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"server/internal/domain"
)

func TestDoExhaustsBudgetAndSurfacesLastError(t *testing.T) {
	calls := 0
	last := domain.E(domain.KindTransient, "server_error", "attempt three")
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, domain.E(domain.KindTransient, "server_error", "attempt %d", calls)
			}
			return 0, last
		})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, last) {
		t.Fatalf("err = %v, want the final attempt's error surfaced verbatim", err)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", domain.E(domain.KindTransient, "network_error", "flaky")
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if out != "ok" || calls != 2 {
		t.Fatalf("out = %q calls = %d, want ok after 2 calls", out, calls)
	}
}

func TestDoNeverRetriesValidation(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		ShouldRetry: func(error) bool { return true },
	}, func(ctx context.Context) (int, error) {
		calls++
		return 0, domain.E(domain.KindValidation, "prompt_required", "empty prompt")
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1: validation failures must not be retried", calls)
	}
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("err kind = %v, want VALIDATION", domain.KindOf(err))
	}
}

func TestDoNeverRetriesPolicyRejection(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 4, BaseDelay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, domain.E(domain.KindPolicyRejected, "safety_blocked", "blocked")
		})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !domain.IsKind(err, domain.KindPolicyRejected) {
		t.Fatalf("err kind = %v, want POLICY_REJECTED", domain.KindOf(err))
	}
}

func TestDoDoesNotRetryNonTransientByDefault(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestDoRetriesMessageMatchedNetworkErrors(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("dial tcp: connection refused")
		})
	if calls != 2 {
		t.Fatalf("calls = %d, want 2: plain network errors are retryable", calls)
	}
}

func TestDoAbortsBackoffOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	_, err := Do(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Hour},
		func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, domain.E(domain.KindTransient, "network_error", "flaky")
		})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancellation did not interrupt the backoff sleep")
	}
}
