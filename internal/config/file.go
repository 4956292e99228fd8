package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Port                 string `yaml:"port"`
	DBDriver             string `yaml:"db_driver"`
	DBPath               string `yaml:"db_path"`
	DatabaseURL          string `yaml:"database_url"`
	VideoStoragePath     string `yaml:"video_storage_path"`
	YouTubeAPIKey        string `yaml:"youtube_api_key"`
	YouTubeChannelID     string `yaml:"youtube_channel_id"`
	YtDlpPath            string `yaml:"ytdlp_path"`
	SyncCron             string `yaml:"sync_cron"`
	RedisURL             string `yaml:"redis_url"`
	LogLevel             string `yaml:"log_level"`
	LogFormat            string `yaml:"log_format"`
	DownloadTimeout      string `yaml:"download_timeout"`
	DownloadDelay        string `yaml:"download_delay"`
	BatchDelay           string `yaml:"batch_delay"`
	APIRequestInterval   string `yaml:"api_request_interval"`
	CommentRefreshMonths int    `yaml:"comment_refresh_months"`
}

// LoadFromFile loads config from a YAML file. Environment variables still
// override values from the file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	loadEnvFiles()
	c := defaults()
	setString(&c.Port, f.Port)
	setString(&c.DBDriver, f.DBDriver)
	setString(&c.DBPath, f.DBPath)
	setString(&c.DatabaseURL, f.DatabaseURL)
	setString(&c.VideoStoragePath, f.VideoStoragePath)
	setString(&c.YouTubeAPIKey, f.YouTubeAPIKey)
	setString(&c.YouTubeChannelID, f.YouTubeChannelID)
	setString(&c.YtDlpPath, f.YtDlpPath)
	setString(&c.SyncCron, f.SyncCron)
	setString(&c.RedisURL, f.RedisURL)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogFormat, f.LogFormat)

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"download_timeout", f.DownloadTimeout, &c.DownloadTimeout},
		{"download_delay", f.DownloadDelay, &c.DownloadDelay},
		{"batch_delay", f.BatchDelay, &c.BatchDelay},
		{"api_request_interval", f.APIRequestInterval, &c.APIRequestInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := parseDuration(d.value)
		if err != nil {
			c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a duration, got: %s", d.key, d.value))
			continue
		}
		*d.dst = parsed
	}
	if f.CommentRefreshMonths != 0 {
		c.CommentRefreshMonths = f.CommentRefreshMonths
	}

	c.applyEnv()
	return c, nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
