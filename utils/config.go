// utils/config.go
package utils

import (
	"log"
	"os"
)

// Config is the process-wide immutable configuration, loaded once at startup.
// Optional settings fall back to documented defaults; required settings fail
// fast.
type Config struct {
	DatabaseURL    string
	ListenAddr     string
	AllowedOrigins string

	ServiceToken string // gateway → engine bearer token

	TwitterBaseURL      string
	TwitterClientID     string
	TwitterClientSecret string

	NotificationServiceURL  string
	NotificationServicePath string
}

// LoadConfig reads the environment (after godotenv has run) and applies
// fallbacks.
func LoadConfig() *Config {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":5300"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		ServiceToken: os.Getenv("REWARD_SERVICE_TOKEN"),

		TwitterBaseURL:      getEnv("TWITTER_API_BASE_URL", "https://api.twitter.com"),
		TwitterClientID:     os.Getenv("TWITTER_CLIENT_ID"),
		TwitterClientSecret: os.Getenv("TWITTER_CLIENT_SECRET"),

		NotificationServiceURL:  getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:8600"),
		NotificationServicePath: getEnv("NOTIFICATION_SERVICE_PATH", "/api/v1/notifications"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	if cfg.ServiceToken == "" {
		log.Fatal("REWARD_SERVICE_TOKEN environment variable not set")
	}
	if cfg.TwitterClientID == "" {
		log.Println("⚠️  TWITTER_CLIENT_ID not set — token refresh will fail until configured")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	log.Printf("⚠️  %s not set, using default: %s", key, fallback)
	return fallback
}
