package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cesargomez89/tubearchive/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port                 string
	DBDriver             string
	DBPath               string
	DatabaseURL          string
	VideoStoragePath     string
	YouTubeAPIKey        string
	YouTubeChannelID     string
	YtDlpPath            string
	SyncCron             string
	RedisURL             string
	LogLevel             string
	LogFormat            string
	DownloadTimeout      time.Duration
	DownloadDelay        time.Duration
	BatchDelay           time.Duration
	APIRequestInterval   time.Duration
	CommentRefreshMonths int

	parseErrors []string
}

// Load loads configuration from environment variables with defaults.
// Variables from .env.local and .env fill in anything not already set.
func Load() *Config {
	loadEnvFiles()
	c := defaults()
	c.applyEnv()
	return c
}

func defaults() *Config {
	return &Config{
		Port:                 constants.DefaultPort,
		DBDriver:             constants.DefaultDBDriver,
		DBPath:               constants.DefaultDBPath,
		VideoStoragePath:     constants.DefaultVideoStoragePath,
		YtDlpPath:            constants.DefaultYtDlpPath,
		SyncCron:             constants.DefaultSyncCron,
		LogLevel:             "info",
		LogFormat:            "text",
		DownloadTimeout:      constants.DefaultDownloadTimeout,
		DownloadDelay:        constants.DefaultDownloadDelay,
		BatchDelay:           constants.DefaultBatchDelay,
		APIRequestInterval:   constants.DefaultAPIRequestInterval,
		CommentRefreshMonths: constants.DefaultCommentRefreshMonths,
	}
}

// applyEnv overrides fields with any environment variable that is set.
func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.VideoStoragePath = getEnv("VIDEO_STORAGE_PATH", c.VideoStoragePath)
	c.YouTubeAPIKey = getEnv("YOUTUBE_API_KEY", c.YouTubeAPIKey)
	c.YouTubeChannelID = getEnv("YOUTUBE_CHANNEL_ID", c.YouTubeChannelID)
	c.YtDlpPath = getEnv("YTDLP_PATH", c.YtDlpPath)
	c.SyncCron = getEnv("SYNC_CRON", c.SyncCron)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.DownloadTimeout = c.getEnvDuration("DOWNLOAD_TIMEOUT", c.DownloadTimeout)
	c.DownloadDelay = c.getEnvDuration("DOWNLOAD_DELAY", c.DownloadDelay)
	c.BatchDelay = c.getEnvDuration("BATCH_DELAY", c.BatchDelay)
	c.APIRequestInterval = c.getEnvDuration("API_REQUEST_INTERVAL", c.APIRequestInterval)
	c.CommentRefreshMonths = c.getEnvInt("COMMENT_REFRESH_MONTHS", c.CommentRefreshMonths)
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	switch c.DBDriver {
	case constants.DriverSQLite:
		if c.DBPath == "" {
			errors = append(errors, "DB_PATH cannot be empty")
		}
	case constants.DriverPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when DB_DRIVER is postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("DB_DRIVER must be one of: sqlite, postgres, got: %s", c.DBDriver))
	}

	if c.VideoStoragePath == "" {
		errors = append(errors, "VIDEO_STORAGE_PATH cannot be empty")
	}

	if c.YouTubeAPIKey == "" {
		errors = append(errors, "YOUTUBE_API_KEY cannot be empty")
	}

	if c.YouTubeChannelID == "" {
		errors = append(errors, "YOUTUBE_CHANNEL_ID cannot be empty")
	}

	if c.YtDlpPath == "" {
		errors = append(errors, "YTDLP_PATH cannot be empty")
	}

	if c.DownloadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("DOWNLOAD_TIMEOUT must be positive, got: %s", c.DownloadTimeout))
	}
	if c.DownloadDelay < 0 || c.BatchDelay < 0 || c.APIRequestInterval < 0 {
		errors = append(errors, "DOWNLOAD_DELAY, BATCH_DELAY and API_REQUEST_INTERVAL cannot be negative")
	}

	if c.CommentRefreshMonths < 1 {
		errors = append(errors, fmt.Sprintf("COMMENT_REFRESH_MONTHS must be at least 1, got: %d", c.CommentRefreshMonths))
	}

	if c.SyncCron != "" {
		if _, err := cron.ParseStandard(c.SyncCron); err != nil {
			errors = append(errors, fmt.Sprintf("SYNC_CRON is not a valid cron expression: %s", c.SyncCron))
		}
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errors = append(errors, fmt.Sprintf("REDIS_URL is not a valid redis URL: %s", c.RedisURL))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == constants.DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (c *Config) getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := parseDuration(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a duration, got: %s", key, value))
		return fallback
	}
	return d
}

func (c *Config) getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a number, got: %s", key, value))
		return fallback
	}
	return n
}

// parseDuration accepts Go duration strings and bare integers as milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}
