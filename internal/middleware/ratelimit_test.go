package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedRequest(t *testing.T, h http.Handler, addr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/images/generate", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitRejectsWithRetryAfter(t *testing.T) {
	h := RateLimit(1, time.Minute)(okHandler())

	if rec := limitedRequest(t, h, "203.0.113.9:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec := limitedRequest(t, h, "203.0.113.9:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	after, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || after < 1 || after > 60 {
		t.Fatalf("Retry-After = %q, want seconds within the window", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	h := RateLimit(1, time.Minute)(okHandler())

	limitedRequest(t, h, "203.0.113.9:1234")
	if rec := limitedRequest(t, h, "203.0.113.10:1234"); rec.Code != http.StatusOK {
		t.Fatalf("other client status = %d, want 200", rec.Code)
	}
}
