// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	Engine string

	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	// Admission control.
	MinAppVersion   string
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Validation bounds. MaxImageBytes is the binary cap; encoded payloads
	// get a 1.4x allowance for base64 inflation.
	MaxImageBytes int
	MaxCityLength int

	UpstreamTimeout time.Duration

	// Bot only.
	TelegramBotToken string
	DatabaseURL      string
}

// Load reads the environment, picking up a local .env first when present.
// Model API keys are intentionally not required here: a missing credential
// is a 503 at request time, not a startup failure.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		Engine: getEnv("ENGINE", "openai"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-5-nano-2025-08-07"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		MinAppVersion:   getEnv("MIN_APP_VERSION", "12.12.25.04.50"),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 10),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),

		MaxImageBytes: getEnvInt("MAX_IMAGE_BYTES", 10*1024*1024),
		MaxCityLength: getEnvInt("MAX_CITY_LENGTH", 100),

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 60*time.Second),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
