package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the shared configuration surface of the server, worker and
// scheduler binaries. Values come from the environment; godotenv loads a
// .env file in each main before this is read.
type Config struct {
	DatabaseURL string
	RedisAddr   string
	Port        string
	BaseURL     string

	OpencastURL      string
	OpencastUser     string
	OpencastPassword string
	OpencastWorkflow string

	UploadDir    string
	UploadTmpDir string
	FeedDir      string

	PollInterval time.Duration
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
		Port:             getenv("PORT", "8080"),
		BaseURL:          strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),
		OpencastURL:      os.Getenv("OPENCAST_URL"),
		OpencastUser:     os.Getenv("OPENCAST_USER"),
		OpencastPassword: os.Getenv("OPENCAST_PASSWORD"),
		OpencastWorkflow: getenv("OPENCAST_WORKFLOW", "fast"),
		UploadDir:        getenv("UPLOAD_DIR", "upload"),
		UploadTmpDir:     getenv("UPLOAD_TMP_DIR", "upload_tmp"),
		FeedDir:          getenv("FEED_DIR", "feeds"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.OpencastURL == "" {
		return nil, errors.New("OPENCAST_URL is not set")
	}

	interval := getenv("POLL_INTERVAL", "10s")
	parsed, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", interval, err)
	}
	if parsed <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL %q: must be positive", interval)
	}
	cfg.PollInterval = parsed

	return cfg, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
