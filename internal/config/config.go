package config

import (
	"os"
	"time"
)

type Config struct {
	Port          string
	APIBaseURL    string
	APITimeout    time.Duration
	AllowedOrigin string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8090"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8000/api"),
		APITimeout:    getDuration("API_TIMEOUT", 15*time.Second),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
