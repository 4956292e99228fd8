// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort                 = "8080"
	DefaultDBDriver             = "sqlite"
	DefaultDBPath               = "tubearchive.db"
	DefaultVideoStoragePath     = "./data/videos"
	DefaultYtDlpPath            = "yt-dlp"
	DefaultDownloadTimeout      = 2 * time.Hour
	DefaultDownloadDelay        = 1 * time.Second
	DefaultBatchDelay           = 100 * time.Millisecond
	DefaultAPIRequestInterval   = 0 * time.Millisecond
	DefaultCommentRefreshMonths = 6
	DefaultSyncCron             = "0 2 * * *"
	DefaultHTTPTimeout          = 30 * time.Second
	DefaultRetryCount           = 3
	DefaultRetryBase            = 1 * time.Second
	DefaultLeaseTTL             = 6 * time.Hour
	DefaultHistoryLimit         = 10
)

// YouTube Data API
const (
	YouTubeVideosPageSize   = 50
	YouTubeDetailsBatchSize = 50
	YouTubeCommentsPageSize = 100
	CommentsDisabledReason  = "commentsDisabled"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Database
const (
	ChannelsTable = "channels"
	VideosTable   = "videos"
	CommentsTable = "comments"
	SyncRunsTable = "sync_runs"
)

// Media
const (
	ExtMP4            = ".mp4"
	MaxTitleRunes     = 100
	YtDlpFormat       = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	YtDlpMergeFormat  = "mp4"
	InterruptedReason = "interrupted"
)

// File Permissions
const (
	DirPermissions = 0755
)

// Redis keys
const (
	SyncLeaseKey = "tubearchive:sync:lease"
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
