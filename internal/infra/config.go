package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	GeminiAPIKey  string
	GeminiBaseURL string
	EditModel     string
	TextModel     string
	ImageModel    string
	VideoModel    string

	// RedisURL enables the Redis operation store; empty keeps operations
	// in process memory.
	RedisURL     string
	OperationTTL time.Duration

	// DatabaseURL enables the Postgres history store; empty keeps history
	// in process memory.
	DatabaseURL string

	// StoragePath enables the filesystem asset library; empty keeps the
	// library in process memory.
	StoragePath string

	WatermarkTag   string
	WatermarkLabel string

	GeoIPDBPath   string
	DefaultLocale string

	PollInterval    time.Duration
	MaxPollDuration time.Duration

	SubmitRetryAttempts     int
	SubmitRetryDelay        time.Duration
	PollRetryAttempts       int
	PollRetryDelay          time.Duration
	EditRetryAttempts       int
	EditRetryDelay          time.Duration
	BatchRetryAttempts      int
	BatchRetryDelay         time.Duration
	PreprocessRetryAttempts int
	PreprocessRetryDelay    time.Duration
	BatchConcurrency        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		EditModel:     getEnv("GEMINI_EDIT_MODEL", "gemini-2.5-flash-image"),
		TextModel:     getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:    getEnv("IMAGEN_MODEL", "imagen-4.0-generate-001"),
		VideoModel:    getEnv("VEO_MODEL", "veo-3.1-fast-generate-preview"),

		RedisURL:     os.Getenv("REDIS_URL"),
		OperationTTL: time.Hour * time.Duration(getEnvInt("OPERATION_TTL_HOURS", 24)),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: os.Getenv("STORAGE_PATH"),

		WatermarkTag:   getEnv("WATERMARK_TAG", "GENAI"),
		WatermarkLabel: getEnv("WATERMARK_LABEL", "AI"),

		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		PollInterval:    time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 10)),
		MaxPollDuration: time.Minute * time.Duration(getEnvInt("VIDEO_POLL_CEILING_MINUTES", 10)),

		SubmitRetryAttempts:     getEnvInt("SUBMIT_RETRY_ATTEMPTS", 3),
		SubmitRetryDelay:        time.Millisecond * time.Duration(getEnvInt("SUBMIT_RETRY_DELAY_MS", 1000)),
		PollRetryAttempts:       getEnvInt("POLL_RETRY_ATTEMPTS", 3),
		PollRetryDelay:          time.Millisecond * time.Duration(getEnvInt("POLL_RETRY_DELAY_MS", 1000)),
		EditRetryAttempts:       getEnvInt("EDIT_RETRY_ATTEMPTS", 3),
		EditRetryDelay:          time.Millisecond * time.Duration(getEnvInt("EDIT_RETRY_DELAY_MS", 1000)),
		BatchRetryAttempts:      getEnvInt("BATCH_RETRY_ATTEMPTS", 2),
		BatchRetryDelay:         time.Millisecond * time.Duration(getEnvInt("BATCH_RETRY_DELAY_MS", 2000)),
		PreprocessRetryAttempts: getEnvInt("PREPROCESS_RETRY_ATTEMPTS", 2),
		PreprocessRetryDelay:    time.Millisecond * time.Duration(getEnvInt("PREPROCESS_RETRY_DELAY_MS", 1000)),
		BatchConcurrency:        getEnvInt("BATCH_CONCURRENCY", 4),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 600)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
