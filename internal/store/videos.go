package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

const videoColumns = `id, channel_id, title, description, tags, category_id, privacy_status,
	upload_date, duration, thumbnail_url, view_count, like_count, comment_count,
	download_status, file_path, downloaded_at, created_at, updated_at`

// UpsertVideo inserts a new video as pending. For an existing video only the
// catalog metadata is refreshed; download state and file path are kept.
func (db *DB) UpsertVideo(ctx context.Context, v *domain.Video) error {
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	v.UploadDate = v.UploadDate.UTC()
	if v.DownloadStatus == "" {
		v.DownloadStatus = domain.DownloadStatusPending
	}

	query := `INSERT INTO videos (` + videoColumns + `) VALUES (
		:id, :channel_id, :title, :description, :tags, :category_id, :privacy_status,
		:upload_date, :duration, :thumbnail_url, :view_count, :like_count, :comment_count,
		:download_status, :file_path, :downloaded_at, :created_at, :updated_at
	) ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		tags = excluded.tags,
		category_id = excluded.category_id,
		privacy_status = excluded.privacy_status,
		thumbnail_url = excluded.thumbnail_url,
		duration = excluded.duration,
		view_count = excluded.view_count,
		like_count = excluded.like_count,
		comment_count = excluded.comment_count,
		updated_at = excluded.updated_at`

	if _, err := db.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", v.ID, err)
	}
	return nil
}

func (db *DB) GetVideo(ctx context.Context, id string) (*domain.Video, error) {
	var v domain.Video
	err := db.GetContext(ctx, &v, db.Rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (db *DB) VideoExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM videos WHERE id = ?`), id)
	return count > 0, err
}

func (db *DB) SetDownloadStatus(ctx context.Context, id string, status domain.DownloadStatus) error {
	query := db.Rebind(`UPDATE videos SET download_status = ?, updated_at = ? WHERE id = ?`)
	return expectRow(db.ExecContext(ctx, query, status, time.Now().UTC(), id))
}

func (db *DB) MarkVideoCompleted(ctx context.Context, id, filePath string) error {
	now := time.Now().UTC()
	query := db.Rebind(`UPDATE videos SET download_status = ?, file_path = ?, downloaded_at = ?, updated_at = ? WHERE id = ?`)
	return expectRow(db.ExecContext(ctx, query, domain.DownloadStatusCompleted, filePath, now, now, id))
}

// MarkVideoFailed moves a video to failed. A completed video is left alone.
func (db *DB) MarkVideoFailed(ctx context.Context, id string) error {
	query := db.Rebind(`UPDATE videos SET download_status = ?, updated_at = ? WHERE id = ? AND download_status <> ?`)
	_, err := db.ExecContext(ctx, query, domain.DownloadStatusFailed, time.Now().UTC(), id, domain.DownloadStatusCompleted)
	return err
}

func (db *DB) SetCommentCount(ctx context.Context, id string, count int) error {
	query := db.Rebind(`UPDATE videos SET comment_count = ?, updated_at = ? WHERE id = ?`)
	return expectRow(db.ExecContext(ctx, query, count, time.Now().UTC(), id))
}

// ListVideosUploadedSince returns videos uploaded at or after since, newest first.
func (db *DB) ListVideosUploadedSince(ctx context.Context, since time.Time) ([]*domain.Video, error) {
	query := db.Rebind(`SELECT ` + videoColumns + ` FROM videos WHERE upload_date >= ? ORDER BY upload_date DESC`)

	var videos []*domain.Video
	err := db.SelectContext(ctx, &videos, query, since.UTC())
	return videos, err
}

func (db *DB) ListVideosByStatus(ctx context.Context, status domain.DownloadStatus) ([]*domain.Video, error) {
	query := db.Rebind(`SELECT ` + videoColumns + ` FROM videos WHERE download_status = ? ORDER BY upload_date DESC`)

	var videos []*domain.Video
	err := db.SelectContext(ctx, &videos, query, status)
	return videos, err
}

// ResetDownloadingVideos fails every video left mid-download by a previous
// process so the next run retries it.
func (db *DB) ResetDownloadingVideos(ctx context.Context) (int64, error) {
	query := db.Rebind(`UPDATE videos SET download_status = ?, updated_at = ? WHERE download_status = ?`)
	res, err := db.ExecContext(ctx, query, domain.DownloadStatusFailed, time.Now().UTC(), domain.DownloadStatusDownloading)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func expectRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
