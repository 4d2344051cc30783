package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	APIBaseURL     string
	PaymentBaseURL string
	StateDir       string
	HTTPTimeout    time.Duration
	AppPort        string
	JWTSecret      string
	TokenExpires   time.Duration
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080"),
		PaymentBaseURL: getEnv("PAYMENT_BASE_URL", ""),
		StateDir:       getEnv("STATE_DIR", ".lureclo"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT_SECONDS", 15) * time.Second,
		AppPort:        getEnv("APP_PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "2c8f6b1d94f3a07e5c12d88ab40e6f9d73b5a2c1e08d4f7690b3e5a8c1d2f4b7"),
		TokenExpires:   getEnvDuration("JWT_TTL_HOURS", 24) * time.Hour,
	}

	// The payment confirm endpoint lives on the API host unless a real
	// processor URL is configured.
	if cfg.PaymentBaseURL == "" {
		cfg.PaymentBaseURL = cfg.APIBaseURL
	}

	if cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL must be set")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
