package domain

import (
	"time"
)

type SyncType string

const (
	SyncTypeFull           SyncType = "full"
	SyncTypeIncremental    SyncType = "incremental"
	SyncTypeCommentRefresh SyncType = "comment_refresh"
)

// ParseSyncType maps a trigger value onto a SyncType. Only full and
// incremental runs can be triggered directly.
func ParseSyncType(s string) (SyncType, bool) {
	switch SyncType(s) {
	case SyncTypeFull:
		return SyncTypeFull, true
	case SyncTypeIncremental, "":
		return SyncTypeIncremental, true
	}
	return "", false
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun is one ledger entry. It is created running and closed once.
type SyncRun struct {
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Error             *string    `json:"error,omitempty" db:"error"`
	ID                string     `json:"id" db:"id"`
	Type              SyncType   `json:"sync_type" db:"sync_type"`
	Status            RunStatus  `json:"status" db:"status"`
	VideosProcessed   int        `json:"videos_processed" db:"videos_processed"`
	CommentsProcessed int        `json:"comments_processed" db:"comments_processed"`
}

// DownloadStatus is the media state of a video.
type DownloadStatus string

const (
	DownloadStatusPending     DownloadStatus = "pending"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusCompleted   DownloadStatus = "completed"
	DownloadStatusFailed      DownloadStatus = "failed"
)

// CanTransition reports whether the download state machine allows moving
// from s to next.
func (s DownloadStatus) CanTransition(next DownloadStatus) bool {
	switch s {
	case DownloadStatusPending, DownloadStatusFailed:
		return next == DownloadStatusDownloading
	case DownloadStatusDownloading:
		return next == DownloadStatusCompleted || next == DownloadStatusFailed
	}
	return false
}

type Channel struct {
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
	ID                string    `json:"id" db:"id"`
	Title             string    `json:"title" db:"title"`
	Description       string    `json:"description" db:"description"`
	CustomURL         string    `json:"custom_url" db:"custom_url"`
	ThumbnailURL      string    `json:"thumbnail_url" db:"thumbnail_url"`
	UploadsPlaylistID string    `json:"uploads_playlist_id" db:"uploads_playlist_id"`
	SubscriberCount   int64     `json:"subscriber_count" db:"subscriber_count"`
	VideoCount        int64     `json:"video_count" db:"video_count"`
	ViewCount         int64     `json:"view_count" db:"view_count"`
}

// Video is the stored row for one archived video.
type Video struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID             string         `json:"id" db:"id"`
	ChannelID      string         `json:"channel_id" db:"channel_id"`
	Title          string         `json:"title" db:"title"`
	Description    string         `json:"description" db:"description"`
	Tags           StringSlice    `json:"tags" db:"tags"`
	CategoryID     string         `json:"category_id" db:"category_id"`
	PrivacyStatus  string         `json:"privacy_status" db:"privacy_status"`
	UploadDate     time.Time      `json:"upload_date" db:"upload_date"`
	Duration       int            `json:"duration" db:"duration"`
	ThumbnailURL   string         `json:"thumbnail_url" db:"thumbnail_url"`
	ViewCount      int64          `json:"view_count" db:"view_count"`
	LikeCount      int64          `json:"like_count" db:"like_count"`
	CommentCount   int64          `json:"comment_count" db:"comment_count"`
	DownloadStatus DownloadStatus `json:"download_status" db:"download_status"`
	FilePath       *string        `json:"file_path,omitempty" db:"file_path"`
	DownloadedAt   *time.Time     `json:"downloaded_at,omitempty" db:"downloaded_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Downloaded reports whether the media artifact is in place.
func (v *Video) Downloaded() bool {
	return v.DownloadStatus == DownloadStatusCompleted && v.FilePath != nil && *v.FilePath != ""
}

// Comment is a stored comment. ParentID is nil for top-level comments.
type Comment struct {
	PublishedAt           time.Time `json:"published_at" db:"published_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
	ParentID              *string   `json:"parent_comment_id,omitempty" db:"parent_comment_id"`
	ID                    string    `json:"id" db:"id"`
	VideoID               string    `json:"video_id" db:"video_id"`
	AuthorName            string    `json:"author_name" db:"author_name"`
	AuthorChannelID       string    `json:"author_channel_id" db:"author_channel_id"`
	AuthorProfileImageURL string    `json:"author_profile_image_url" db:"author_profile_image_url"`
	TextDisplay           string    `json:"text_display" db:"text_display"`
	TextOriginal          string    `json:"text_original" db:"text_original"`
	LikeCount             int64     `json:"like_count" db:"like_count"`
}

// ChannelInfo is a channel as reported by the remote catalog.
type ChannelInfo struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	CustomURL         string `json:"custom_url,omitempty"`
	ThumbnailURL      string `json:"thumbnail_url,omitempty"`
	UploadsPlaylistID string `json:"uploads_playlist_id"`
	SubscriberCount   int64  `json:"subscriber_count"`
	VideoCount        int64  `json:"video_count"`
	ViewCount         int64  `json:"view_count"`
}

// ToChannel converts catalog data into a storable row.
func (c *ChannelInfo) ToChannel() *Channel {
	return &Channel{
		ID:                c.ID,
		Title:             c.Title,
		Description:       c.Description,
		CustomURL:         c.CustomURL,
		ThumbnailURL:      c.ThumbnailURL,
		UploadsPlaylistID: c.UploadsPlaylistID,
		SubscriberCount:   c.SubscriberCount,
		VideoCount:        c.VideoCount,
		ViewCount:         c.ViewCount,
	}
}

// VideoInfo is a video as reported by the remote catalog.
type VideoInfo struct {
	UploadDate    time.Time `json:"upload_date"`
	ID            string    `json:"id"`
	ChannelID     string    `json:"channel_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	PrivacyStatus string    `json:"privacy_status,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Duration      int       `json:"duration"`
	ViewCount     int64     `json:"view_count"`
	LikeCount     int64     `json:"like_count"`
	CommentCount  int64     `json:"comment_count"`
}

// ToVideo converts catalog data into a new video row in the pending state.
func (v *VideoInfo) ToVideo(channelID string) *Video {
	if v.ChannelID != "" {
		channelID = v.ChannelID
	}
	privacy := v.PrivacyStatus
	if privacy == "" {
		privacy = "public"
	}
	return &Video{
		ID:             v.ID,
		ChannelID:      channelID,
		Title:          v.Title,
		Description:    v.Description,
		Tags:           StringSlice(v.Tags),
		CategoryID:     v.CategoryID,
		PrivacyStatus:  privacy,
		UploadDate:     v.UploadDate.UTC(),
		Duration:       v.Duration,
		ThumbnailURL:   v.ThumbnailURL,
		ViewCount:      v.ViewCount,
		LikeCount:      v.LikeCount,
		CommentCount:   v.CommentCount,
		DownloadStatus: DownloadStatusPending,
	}
}

// CommentInfo is a comment as reported by the remote catalog. Replies carry
// the id of their top-level comment in ParentID.
type CommentInfo struct {
	PublishedAt           time.Time `json:"published_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	ParentID              string    `json:"parent_comment_id,omitempty"`
	ID                    string    `json:"id"`
	VideoID               string    `json:"video_id"`
	AuthorName            string    `json:"author_name"`
	AuthorChannelID       string    `json:"author_channel_id,omitempty"`
	AuthorProfileImageURL string    `json:"author_profile_image_url,omitempty"`
	TextDisplay           string    `json:"text_display"`
	TextOriginal          string    `json:"text_original"`
	LikeCount             int64     `json:"like_count"`
}

func (c *CommentInfo) ToComment() *Comment {
	var parent *string
	if c.ParentID != "" {
		p := c.ParentID
		parent = &p
	}
	return &Comment{
		ID:                    c.ID,
		VideoID:               c.VideoID,
		ParentID:              parent,
		AuthorName:            c.AuthorName,
		AuthorChannelID:       c.AuthorChannelID,
		AuthorProfileImageURL: c.AuthorProfileImageURL,
		TextDisplay:           c.TextDisplay,
		TextOriginal:          c.TextOriginal,
		LikeCount:             c.LikeCount,
		PublishedAt:           c.PublishedAt.UTC(),
		UpdatedAt:             c.UpdatedAt.UTC(),
	}
}
