package video

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/operation"
	videoprovider "server/internal/providers/video"
	"server/internal/retry"
)

type fakeOperator struct {
	submit      func(context.Context, videoprovider.SubmitRequest) (domain.OperationToken, error)
	refresh     func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error)
	downloadURL func(string) (string, error)
}

func (f *fakeOperator) Submit(ctx context.Context, req videoprovider.SubmitRequest) (domain.OperationToken, error) {
	if f.submit != nil {
		return f.submit(ctx, req)
	}
	return domain.OperationToken{}, errors.New("submit not implemented")
}

func (f *fakeOperator) Refresh(ctx context.Context, token domain.OperationToken) (*videoprovider.Snapshot, error) {
	if f.refresh != nil {
		return f.refresh(ctx, token)
	}
	return nil, errors.New("refresh not implemented")
}

func (f *fakeOperator) DownloadURL(uri string) (string, error) {
	if f.downloadURL != nil {
		return f.downloadURL(uri)
	}
	return uri + "&key=test-key", nil
}

func fastConfig() Config {
	return Config{
		PollInterval: time.Millisecond,
		SubmitRetry:  retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		PollRetry:    retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}
}

func newService(op videoprovider.Operator, store operation.Store) *Service {
	return NewService(op, store, fastConfig(), zerolog.Nop())
}

func TestSubmitValidatesBeforeProvider(t *testing.T) {
	called := false
	svc := newService(&fakeOperator{
		submit: func(context.Context, videoprovider.SubmitRequest) (domain.OperationToken, error) {
			called = true
			return domain.OperationToken{}, nil
		},
	}, operation.NewMemoryStore())

	cases := []videoprovider.SubmitRequest{
		{Prompt: "", AspectRatio: "16:9"},
		{Prompt: "   ", AspectRatio: "16:9"},
		{Prompt: "waves", AspectRatio: "1:1"},
		{Prompt: "waves", AspectRatio: ""},
	}
	for _, req := range cases {
		if _, err := svc.Submit(context.Background(), req); !domain.IsKind(err, domain.KindValidation) {
			t.Fatalf("Submit(%+v) err kind = %v, want VALIDATION", req, domain.KindOf(err))
		}
	}
	if called {
		t.Fatal("invalid requests must not reach the provider")
	}
}

func TestSubmitPersistsBeforeReturning(t *testing.T) {
	store := operation.NewMemoryStore()
	raw := json.RawMessage(`{"name":"models/veo/operations/ok","done":false}`)
	svc := newService(&fakeOperator{
		submit: func(context.Context, videoprovider.SubmitRequest) (domain.OperationToken, error) {
			return domain.OperationToken{Name: "models/veo/operations/ok", Raw: raw}, nil
		},
	}, store)

	id, err := svc.Submit(context.Background(), videoprovider.SubmitRequest{Prompt: "waves", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if id != "models/veo/operations/ok" {
		t.Fatalf("id = %q", id)
	}
	if _, err := store.Get(context.Background(), id); err != nil {
		t.Fatalf("token must be persisted before Submit returns: %v", err)
	}
}

func TestSubmitNamelessTokenIsDistinctError(t *testing.T) {
	svc := newService(&fakeOperator{
		submit: func(context.Context, videoprovider.SubmitRequest) (domain.OperationToken, error) {
			return domain.OperationToken{Name: "", Raw: json.RawMessage(`{}`)}, nil
		},
	}, operation.NewMemoryStore())

	_, err := svc.Submit(context.Background(), videoprovider.SubmitRequest{Prompt: "waves", AspectRatio: "16:9"})
	if !errors.Is(err, domain.ErrNoOperationName) {
		t.Fatalf("err = %v, want ErrNoOperationName", err)
	}
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	attempts := 0
	svc := newService(&fakeOperator{
		submit: func(context.Context, videoprovider.SubmitRequest) (domain.OperationToken, error) {
			attempts++
			if attempts < 3 {
				return domain.OperationToken{}, domain.E(domain.KindTransient, "server_error", "busy")
			}
			return domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op"}`)}, nil
		},
	}, operation.NewMemoryStore())

	if _, err := svc.Submit(context.Background(), videoprovider.SubmitRequest{Prompt: "waves", AspectRatio: "9:16"}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestPollUnknownIdFailsFastWithoutProvider(t *testing.T) {
	called := false
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			called = true
			return nil, nil
		},
	}, operation.NewMemoryStore())

	_, err := svc.Poll(context.Background(), "models/veo/operations/ghost")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("err kind = %v, want NOT_FOUND", domain.KindOf(err))
	}
	if called {
		t.Fatal("an unknown id must not trigger a provider refresh")
	}
}

func seedStore(t *testing.T, store operation.Store, name, raw string) {
	t.Helper()
	err := store.Save(context.Background(), domain.OperationToken{Name: name, Raw: json.RawMessage(raw)})
	if err != nil {
		t.Fatalf("seed Save returned error: %v", err)
	}
}

func TestPollProcessing(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	svc := newService(&fakeOperator{
		refresh: func(_ context.Context, token domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{Token: token, Done: false}, nil
		},
	}, store)

	status, err := svc.Poll(context.Background(), "op")
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if status.State != StateProcessing {
		t.Fatalf("State = %v, want processing", status.State)
	}
}

func TestPollPersistsRefreshedStateBeforeInterpreting(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	refreshed := `{"name":"op","done":true,"error":{"message":"model crashed"}}`
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{
				Token:        domain.OperationToken{Name: "op", Raw: json.RawMessage(refreshed)},
				Done:         true,
				Failed:       true,
				ErrorMessage: "model crashed",
			}, nil
		},
	}, store)

	status, err := svc.Poll(context.Background(), "op")
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if status.State != StateFailed || status.Error != "model crashed" {
		t.Fatalf("status = %+v, want failed with provider message", status)
	}
	stored, err := store.Get(context.Background(), "op")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(stored.Raw) != refreshed {
		t.Fatalf("stored raw = %s, want the refreshed payload persisted", stored.Raw)
	}
}

func TestPollFailedWithoutMessageGetsFallback(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{
				Token:  domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":true,"error":{}}`)},
				Done:   true,
				Failed: true,
			}, nil
		},
	}, store)

	status, err := svc.Poll(context.Background(), "op")
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if status.Error == "" {
		t.Fatal("a failed operation without a provider message needs a fallback message")
	}
}

func TestPollCompletedResolvesDownloadURL(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{
				Token:       domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":true}`)},
				Done:        true,
				DownloadURI: "https://dl.example/v.mp4?alt=media",
			}, nil
		},
	}, store)

	status, err := svc.Poll(context.Background(), "op")
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if status.State != StateCompleted {
		t.Fatalf("State = %v, want completed", status.State)
	}
	if status.VideoURL != "https://dl.example/v.mp4?alt=media&key=test-key" {
		t.Fatalf("VideoURL = %q, want the credentialed URL", status.VideoURL)
	}
	if !status.JustCompleted {
		t.Fatal("first terminal poll must set JustCompleted")
	}
}

func TestPollCompletedIsIdempotentAcrossRepolls(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{
				Token:       domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":true}`)},
				Done:        true,
				DownloadURI: "https://dl.example/v.mp4",
			}, nil
		},
	}, store)

	first, err := svc.Poll(context.Background(), "op")
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	second, err := svc.Poll(context.Background(), "op")
	if err != nil {
		t.Fatalf("second Poll returned error: %v", err)
	}
	if !first.JustCompleted {
		t.Fatal("first poll must report JustCompleted")
	}
	if second.JustCompleted {
		t.Fatal("re-polling a completed operation must not report JustCompleted again")
	}
	if second.State != StateCompleted || second.VideoURL == "" {
		t.Fatalf("second = %+v, want the same completed result", second)
	}
}

func TestPollDoneWithoutResultIsInconsistentState(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{
				Token: domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":true}`)},
				Done:  true,
			}, nil
		},
	}, store)

	_, err := svc.Poll(context.Background(), "op")
	if !domain.IsKind(err, domain.KindInconsistentState) {
		t.Fatalf("err kind = %v, want INCONSISTENT_TERMINAL_STATE", domain.KindOf(err))
	}
}

func TestAwaitPollsUntilCompleted(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	polls := 0
	svc := newService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			polls++
			if polls < 3 {
				return &videoprovider.Snapshot{
					Token: domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":false}`)},
				}, nil
			}
			return &videoprovider.Snapshot{
				Token:       domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":true}`)},
				Done:        true,
				DownloadURI: "https://dl.example/v.mp4",
			}, nil
		},
	}, store)

	url, err := svc.Await(context.Background(), "op", nil)
	if err != nil {
		t.Fatalf("Await returned error: %v", err)
	}
	if url == "" || polls != 3 {
		t.Fatalf("url = %q polls = %d, want a URL after 3 polls", url, polls)
	}
}

func TestAwaitTimesOutWithTransientError(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	cfg := fastConfig()
	cfg.MaxPollDuration = 5 * time.Millisecond
	svc := NewService(&fakeOperator{
		refresh: func(context.Context, domain.OperationToken) (*videoprovider.Snapshot, error) {
			return &videoprovider.Snapshot{
				Token: domain.OperationToken{Name: "op", Raw: json.RawMessage(`{"name":"op","done":false}`)},
			}, nil
		},
	}, store, cfg, zerolog.Nop())

	_, err := svc.Await(context.Background(), "op", nil)
	if !domain.IsKind(err, domain.KindTransient) || domain.CodeOf(err) != "video_timeout" {
		t.Fatalf("err = %v, want transient video_timeout", err)
	}
}

func TestAwaitStopsOnContextCancel(t *testing.T) {
	store := operation.NewMemoryStore()
	seedStore(t, store, "op", `{"name":"op","done":false}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newService(&fakeOperator{}, store)

	_, err := svc.Await(ctx, "op", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
