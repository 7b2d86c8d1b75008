package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string

	// Kindroid streaming story source. When KindroidAPIKey is empty the
	// mock source is used instead.
	KindroidAPIURL string
	KindroidAPIKey string
	KindroidAIID   string
	StreamTimeout  time.Duration

	// Player pacing. Values outside the playback clamps are clamped there.
	TextSpeed time.Duration
	AutoDelay time.Duration

	// APIBaseURL is where the terminal player finds the API server.
	APIBaseURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		KindroidAPIURL: getEnv("KINDROID_API_URL", "https://api.kindroid.ai/v1"),
		KindroidAPIKey: os.Getenv("KINDROID_API_KEY"),
		KindroidAIID:   os.Getenv("KINDROID_AI_ID"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080"),
	}

	var err error
	if cfg.StreamTimeout, err = getEnvMillis("STREAM_TIMEOUT_MS", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TextSpeed, err = getEnvMillis("TEXT_SPEED_MS", 50*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.AutoDelay, err = getEnvMillis("AUTO_DELAY_MS", 2000*time.Millisecond); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
