package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	ModelTimeout             time.Duration
	ModelRetryMaxAttempts    int
	ModelRetryInitialBackoff time.Duration
	ModelRetryMaxBackoff     time.Duration
	ModelBreakerEnabled      bool

	RubricPath string
	StatePath  string

	// RemoteSyncDSN is optional; empty keeps history local only.
	RemoteSyncDSN string

	UploadFreeMaxMB    int
	UploadPremiumMaxMB int
	ZipMaxEntries      int
	ZipMaxEntryChars   int

	ReportFontDir     string
	ReportFontFamily  string
	ReportArchivePath string

	// NATSURL is optional for the API; the worker requires it.
	NATSURL     string
	NATSSubject string

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration

	// APIUploadOverhead is the multipart envelope allowed on top of the premium ceiling.
	APIUploadOverhead int64

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:  mustEnv("GEMINI_API_KEY", mustEnv("API_KEY", "")),
		GeminiBaseURL: mustEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   mustEnv("GEMINI_MODEL", "gemini-3-pro-preview"),

		ModelTimeout:             mustEnvDuration("MODEL_TIMEOUT_SECONDS", 180*time.Second, time.Second),
		ModelRetryMaxAttempts:    mustEnvInt("MODEL_RETRY_MAX_ATTEMPTS", 3),
		ModelRetryInitialBackoff: mustEnvDuration("MODEL_RETRY_INITIAL_BACKOFF_MS", time.Second, time.Millisecond),
		ModelRetryMaxBackoff:     mustEnvDuration("MODEL_RETRY_MAX_BACKOFF_MS", 8*time.Second, time.Millisecond),
		ModelBreakerEnabled:      mustEnvBool("MODEL_BREAKER_ENABLED", true),

		RubricPath: mustEnv("RUBRIC_PATH", ""),
		StatePath:  mustEnv("STATE_PATH", "./data/state"),

		RemoteSyncDSN: mustEnv("REMOTE_SYNC_DSN", ""),

		UploadFreeMaxMB:    mustEnvInt("UPLOAD_FREE_MAX_MB", 20),
		UploadPremiumMaxMB: mustEnvInt("UPLOAD_PREMIUM_MAX_MB", 500),
		ZipMaxEntries:      mustEnvInt("ZIP_MAX_ENTRIES", 15),
		ZipMaxEntryChars:   mustEnvInt("ZIP_MAX_ENTRY_CHARS", 3000),

		ReportFontDir:     mustEnv("REPORT_FONT_DIR", ""),
		ReportFontFamily:  mustEnv("REPORT_FONT_FAMILY", "Roboto"),
		ReportArchivePath: mustEnv("REPORT_ARCHIVE_PATH", "./data/reports"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "audits.completed"),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 16),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT_MS", 250*time.Millisecond, time.Millisecond),
		APIUploadOverhead:   int64(mustEnvInt("API_UPLOAD_OVERHEAD_BYTES", 1<<20)),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// UploadLimits returns the tier ceilings in bytes.
func (c Config) UploadLimits() (free, premium int64) {
	return int64(c.UploadFreeMaxMB) * 1024 * 1024, int64(c.UploadPremiumMaxMB) * 1024 * 1024
}

func mustEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration reads a bare number in unit, or a Go duration such as "90s".
func mustEnvDuration(key string, fallback, unit time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * unit
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
