package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig must fail without GEMINI_API_KEY")
	}
}

func TestLoadConfigPollRetryDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("POLL_RETRY_ATTEMPTS", "")
	t.Setenv("POLL_RETRY_DELAY_MS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollRetryAttempts != 3 {
		t.Fatalf("PollRetryAttempts = %d, want 3", cfg.PollRetryAttempts)
	}
	if cfg.PollRetryDelay != time.Second {
		t.Fatalf("PollRetryDelay = %s, want 1s", cfg.PollRetryDelay)
	}
}

func TestLoadConfigPollRetryOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("POLL_RETRY_ATTEMPTS", "5")
	t.Setenv("POLL_RETRY_DELAY_MS", "250")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollRetryAttempts != 5 {
		t.Fatalf("PollRetryAttempts = %d, want 5", cfg.PollRetryAttempts)
	}
	if cfg.PollRetryDelay != 250*time.Millisecond {
		t.Fatalf("PollRetryDelay = %s, want 250ms", cfg.PollRetryDelay)
	}
	if cfg.SubmitRetryAttempts != 3 {
		t.Fatalf("SubmitRetryAttempts = %d, want the submit budget untouched", cfg.SubmitRetryAttempts)
	}
}
