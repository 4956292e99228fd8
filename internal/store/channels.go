package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

func (db *DB) UpsertChannel(ctx context.Context, ch *domain.Channel) error {
	now := time.Now().UTC()
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = now
	}
	ch.UpdatedAt = now

	query := `INSERT INTO channels (
		id, title, description, custom_url, subscriber_count, video_count, view_count,
		thumbnail_url, uploads_playlist_id, created_at, updated_at
	) VALUES (
		:id, :title, :description, :custom_url, :subscriber_count, :video_count, :view_count,
		:thumbnail_url, :uploads_playlist_id, :created_at, :updated_at
	) ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		custom_url = excluded.custom_url,
		subscriber_count = excluded.subscriber_count,
		video_count = excluded.video_count,
		view_count = excluded.view_count,
		thumbnail_url = excluded.thumbnail_url,
		uploads_playlist_id = excluded.uploads_playlist_id,
		updated_at = excluded.updated_at`

	if _, err := db.NamedExecContext(ctx, query, ch); err != nil {
		return fmt.Errorf("failed to upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

func (db *DB) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	var ch domain.Channel
	err := db.GetContext(ctx, &ch, db.Rebind(`SELECT * FROM channels WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &ch, nil
}
