// Package config loads deskbell configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database
	DatabasePath string

	// API server for front-desk UI pages
	ListenAddr       string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	BroadcastTimeout time.Duration

	// Output sinks
	SpeechCommand    string
	NotificationIcon string

	// Desktop state probe commands for do-not-disturb. Each probe is a
	// shell-free command line; exit status zero means the signal is active.
	LockedProbeCommand     string
	AudibleProbeCommand    string
	FullscreenProbeCommand string
	ProbeTimeout           time.Duration

	// Trigger handler tuning
	SaveRetries      int
	RetryBackoffBase time.Duration
	SpeakRepeatDelay time.Duration
	NotificationTTL  time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("DESKBELL_ENV", "development"),
		LogLevel: getEnv("DESKBELL_LOG_LEVEL", "info"),

		DatabasePath: getEnv("DESKBELL_DB_PATH", defaultDatabasePath()),

		ListenAddr:       getEnv("DESKBELL_LISTEN_ADDR", "127.0.0.1:7353"),
		ReadTimeout:      getDurationEnv("DESKBELL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:     getDurationEnv("DESKBELL_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:      getDurationEnv("DESKBELL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:  getDurationEnv("DESKBELL_SHUTDOWN_TIMEOUT", 5*time.Second),
		BroadcastTimeout: getDurationEnv("DESKBELL_BROADCAST_TIMEOUT", 2*time.Second),

		SpeechCommand:    getEnv("DESKBELL_SPEECH_COMMAND", ""),
		NotificationIcon: getEnv("DESKBELL_NOTIFICATION_ICON", ""),

		LockedProbeCommand:     getEnv("DESKBELL_PROBE_LOCKED", ""),
		AudibleProbeCommand:    getEnv("DESKBELL_PROBE_AUDIBLE", ""),
		FullscreenProbeCommand: getEnv("DESKBELL_PROBE_FULLSCREEN", ""),
		ProbeTimeout:           getDurationEnv("DESKBELL_PROBE_TIMEOUT", 3*time.Second),

		SaveRetries:      getIntEnv("DESKBELL_SAVE_RETRIES", 3),
		RetryBackoffBase: getDurationEnv("DESKBELL_RETRY_BACKOFF_BASE", 500*time.Millisecond),
		SpeakRepeatDelay: getDurationEnv("DESKBELL_SPEAK_REPEAT_DELAY", 3*time.Second),
		NotificationTTL:  getDurationEnv("DESKBELL_NOTIFICATION_TTL", 5*time.Minute),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "deskbell.db"
	}
	return filepath.Join(home, ".deskbell", "deskbell.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
