package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cesargomez89/tubearchive/internal/constants"
)

func validConfig() Config {
	return Config{
		Port:                 "8080",
		DBDriver:             constants.DriverSQLite,
		DBPath:               "test.db",
		VideoStoragePath:     "/tmp/videos",
		YouTubeAPIKey:        "key",
		YouTubeChannelID:     "UC123",
		YtDlpPath:            "yt-dlp",
		SyncCron:             constants.DefaultSyncCron,
		LogLevel:             "info",
		LogFormat:            "text",
		DownloadTimeout:      time.Hour,
		DownloadDelay:        time.Second,
		BatchDelay:           100 * time.Millisecond,
		CommentRefreshMonths: 6,
	}
}

func TestLoad(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Port)
	}

	if cfg.DBPath != constants.DefaultDBPath {
		t.Errorf("Expected DBPath to be %s, got %s", constants.DefaultDBPath, cfg.DBPath)
	}

	if cfg.DownloadDelay != constants.DefaultDownloadDelay {
		t.Errorf("Expected DownloadDelay to be %v, got %v", constants.DefaultDownloadDelay, cfg.DownloadDelay)
	}

	if cfg.CommentRefreshMonths != constants.DefaultCommentRefreshMonths {
		t.Errorf("Expected CommentRefreshMonths to be %d, got %d", constants.DefaultCommentRefreshMonths, cfg.CommentRefreshMonths)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("YOUTUBE_CHANNEL_ID", "UCabc")
	t.Setenv("DOWNLOAD_DELAY", "250")
	t.Setenv("DOWNLOAD_TIMEOUT", "45m")
	t.Setenv("COMMENT_REFRESH_MONTHS", "3")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Port)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected DBPath to be /tmp/test.db, got %s", cfg.DBPath)
	}

	if cfg.YouTubeChannelID != "UCabc" {
		t.Errorf("Expected YouTubeChannelID to be UCabc, got %s", cfg.YouTubeChannelID)
	}

	if cfg.DownloadDelay != 250*time.Millisecond {
		t.Errorf("Expected DownloadDelay to be 250ms, got %v", cfg.DownloadDelay)
	}

	if cfg.DownloadTimeout != 45*time.Minute {
		t.Errorf("Expected DownloadTimeout to be 45m, got %v", cfg.DownloadTimeout)
	}

	if cfg.CommentRefreshMonths != 3 {
		t.Errorf("Expected CommentRefreshMonths to be 3, got %d", cfg.CommentRefreshMonths)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("DOWNLOAD_DELAY", "soon")

	cfg := Load()
	cfg.YouTubeAPIKey = "key"
	cfg.YouTubeChannelID = "UC123"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for invalid duration")
	}
	if !strings.Contains(err.Error(), "DOWNLOAD_DELAY") {
		t.Errorf("Expected error to mention DOWNLOAD_DELAY, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"invalid port - not a number", func(c *Config) { c.Port = "abc" }, true},
		{"invalid port - out of range", func(c *Config) { c.Port = "99999" }, true},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"postgres without url", func(c *Config) { c.DBDriver = constants.DriverPostgres }, true},
		{"postgres with url", func(c *Config) {
			c.DBDriver = constants.DriverPostgres
			c.DatabaseURL = "postgres://localhost/tubearchive"
		}, false},
		{"missing api key", func(c *Config) { c.YouTubeAPIKey = "" }, true},
		{"missing channel", func(c *Config) { c.YouTubeChannelID = "" }, true},
		{"bad cron", func(c *Config) { c.SyncCron = "every day" }, true},
		{"empty cron disables schedule", func(c *Config) { c.SyncCron = "" }, false},
		{"bad redis url", func(c *Config) { c.RedisURL = "http://localhost" }, true},
		{"redis url", func(c *Config) { c.RedisURL = "redis://localhost:6379/0" }, false},
		{"zero refresh window", func(c *Config) { c.CommentRefreshMonths = 0 }, true},
		{"negative delay", func(c *Config) { c.DownloadDelay = -time.Second }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "invalid" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.YouTubeAPIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "PORT") || !strings.Contains(err.Error(), "YOUTUBE_API_KEY") {
		t.Errorf("Expected both problems in error, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `port: "7070"
youtube_channel_id: UCfile
youtube_api_key: filekey
download_delay: 2s
comment_refresh_months: 12
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("PORT", "6060")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Port != "6060" {
		t.Errorf("Expected env to override file port, got %s", cfg.Port)
	}
	if cfg.YouTubeChannelID != "UCfile" {
		t.Errorf("Expected YouTubeChannelID from file, got %s", cfg.YouTubeChannelID)
	}
	if cfg.DownloadDelay != 2*time.Second {
		t.Errorf("Expected DownloadDelay 2s, got %v", cfg.DownloadDelay)
	}
	if cfg.CommentRefreshMonths != 12 {
		t.Errorf("Expected CommentRefreshMonths 12, got %d", cfg.CommentRefreshMonths)
	}
	if cfg.SyncCron != constants.DefaultSyncCron {
		t.Errorf("Expected default SyncCron, got %s", cfg.SyncCron)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestApplyEnvFile(t *testing.T) {
	t.Setenv("TUBEARCHIVE_TEST_SET", "kept")

	applyEnvFile([]byte(`# comment
TUBEARCHIVE_TEST_NEW="from file"
export TUBEARCHIVE_TEST_EXPORTED=yes
TUBEARCHIVE_TEST_SET=overwritten
not a pair
`))
	t.Cleanup(func() {
		os.Unsetenv("TUBEARCHIVE_TEST_NEW")
		os.Unsetenv("TUBEARCHIVE_TEST_EXPORTED")
	})

	if got := os.Getenv("TUBEARCHIVE_TEST_NEW"); got != "from file" {
		t.Errorf("Expected 'from file', got '%s'", got)
	}
	if got := os.Getenv("TUBEARCHIVE_TEST_EXPORTED"); got != "yes" {
		t.Errorf("Expected 'yes', got '%s'", got)
	}
	if got := os.Getenv("TUBEARCHIVE_TEST_SET"); got != "kept" {
		t.Errorf("Expected existing value to win, got '%s'", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	value := getEnv("TEST_VAR", "default")
	if value != "test_value" {
		t.Errorf("Expected 'test_value', got '%s'", value)
	}

	value = getEnv("NON_EXISTENT_VAR", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}

func TestDSN(t *testing.T) {
	cfg := validConfig()
	if got := cfg.DSN(); got != "test.db" {
		t.Errorf("sqlite DSN = %q, want test.db", got)
	}

	cfg.DBDriver = constants.DriverPostgres
	cfg.DatabaseURL = "postgres://u:p@localhost/archive"
	if got := cfg.DSN(); got != cfg.DatabaseURL {
		t.Errorf("postgres DSN = %q, want %q", got, cfg.DatabaseURL)
	}
}
