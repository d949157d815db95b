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
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	StoragePath      string
	StorageBaseURL   string
	SignedURLSecret  string
	SignedURLExpiry  time.Duration
	GeoIPDBPath      string
	OmiseSecretKey   string
	LIFFChannelID    string

	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	FallbackAPIKey      string
	FallbackModel       string
	FallbackBaseURL     string
	FallbackMaxRetries  int
	GenerationTimeout   time.Duration
	GenerationRetries   int
	RetryBaseDelay      time.Duration
	BackgroundRemoveURL string

	GenerationConcurrency int
	GenerationCooldown    time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		SignedURLSecret: getEnv("SIGNED_URL_SECRET", ""),
		SignedURLExpiry: time.Duration(getEnvInt("SIGNED_URL_EXPIRY_MINUTES", 60)) * time.Minute,
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		OmiseSecretKey:  os.Getenv("OMISE_SECRET_KEY"),
		LIFFChannelID:   os.Getenv("LIFF_CHANNEL_ID"),

		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		FallbackAPIKey:      os.Getenv("GENAI_FALLBACK_API_KEY"),
		FallbackModel:       getEnv("GENAI_FALLBACK_MODEL", "gemini-2.5-flash-image"),
		FallbackBaseURL:     getEnv("GENAI_FALLBACK_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		FallbackMaxRetries:  getEnvInt("GENAI_FALLBACK_MAX_RETRIES", 2),
		GenerationTimeout:   time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 120)),
		GenerationRetries:   getEnvInt("GENERATION_MAX_RETRIES", 8),
		RetryBaseDelay:      time.Duration(getEnvInt("GENERATION_RETRY_BASE_DELAY_MS", 5000)) * time.Millisecond,
		BackgroundRemoveURL: os.Getenv("BACKGROUND_REMOVE_URL"),

		GenerationConcurrency: getEnvInt("GENERATION_CONCURRENCY", 1),
		GenerationCooldown:    time.Second * time.Duration(getEnvInt("GENERATION_COOLDOWN_SECONDS", 30)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.SignedURLSecret == "" {
		cfg.SignedURLSecret = cfg.JWTSecret
	}

	return cfg, nil
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
