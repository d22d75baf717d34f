package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY", "MODEL_TIMEOUT_SECONDS", "REMOTE_SYNC_DSN", "NATS_URL", "UPLOAD_FREE_MAX_MB", "ZIP_MAX_ENTRIES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.GeminiModel != "gemini-3-pro-preview" {
		t.Fatalf("unexpected default model %q", cfg.GeminiModel)
	}
	if cfg.ModelTimeout != 180*time.Second {
		t.Fatalf("unexpected default timeout %s", cfg.ModelTimeout)
	}
	if cfg.RemoteSyncDSN != "" || cfg.NATSURL != "" {
		t.Fatalf("remote sync and events must be off by default")
	}
	if cfg.ZipMaxEntries != 15 || cfg.ZipMaxEntryChars != 3000 {
		t.Fatalf("unexpected zip limits %d/%d", cfg.ZipMaxEntries, cfg.ZipMaxEntryChars)
	}
	free, premium := cfg.UploadLimits()
	if free != 20*1024*1024 || premium != 500*1024*1024 {
		t.Fatalf("unexpected upload limits %d/%d", free, premium)
	}
}

func TestLoadAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")
	if got := Load().GeminiAPIKey; got != "legacy-key" {
		t.Fatalf("expected API_KEY fallback, got %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "primary-key")
	if got := Load().GeminiAPIKey; got != "primary-key" {
		t.Fatalf("expected GEMINI_API_KEY to win, got %q", got)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MODEL_TIMEOUT_SECONDS", "45")
	t.Setenv("MODEL_RETRY_INITIAL_BACKOFF_MS", "250")
	t.Setenv("API_BACKPRESSURE_WAIT_MS", "1s")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("MODEL_BREAKER_ENABLED", "false")
	t.Setenv("ZIP_MAX_ENTRIES", "not-a-number")

	cfg := Load()
	if cfg.ModelTimeout != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.ModelTimeout)
	}
	if cfg.ModelRetryInitialBackoff != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", cfg.ModelRetryInitialBackoff)
	}
	if cfg.APIBackpressureWait != time.Second {
		t.Fatalf("expected duration syntax accepted, got %s", cfg.APIBackpressureWait)
	}
	if cfg.APIRateLimitRPS != 2.5 || cfg.ModelBreakerEnabled {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.ZipMaxEntries != 15 {
		t.Fatalf("invalid int should fall back, got %d", cfg.ZipMaxEntries)
	}
}
