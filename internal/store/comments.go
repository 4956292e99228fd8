package store

import (
	"context"
	"fmt"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

const commentColumns = `id, video_id, parent_comment_id, author_name, author_channel_id,
	author_profile_image_url, text_display, text_original, like_count, published_at, updated_at`

// ReplaceComments swaps the stored comment set of a video for comments in one
// transaction and returns how many distinct comments were stored, which is
// also written to the video's comment_count. Every reply must point at a
// top-level comment included in the same set.
func (db *DB) ReplaceComments(ctx context.Context, videoID string, comments []*domain.Comment) (int, error) {
	ordered, err := orderComments(videoID, comments)
	if err != nil {
		return 0, err
	}

	err = db.RunInTx(ctx, func(tx *DB) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE video_id = ?`), videoID); err != nil {
			return fmt.Errorf("failed to clear comments for %s: %w", videoID, err)
		}

		query := `INSERT INTO comments (` + commentColumns + `) VALUES (
			:id, :video_id, :parent_comment_id, :author_name, :author_channel_id,
			:author_profile_image_url, :text_display, :text_original, :like_count, :published_at, :updated_at
		) ON CONFLICT (id) DO UPDATE SET
			like_count = excluded.like_count,
			updated_at = excluded.updated_at`

		for _, c := range ordered {
			if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
				return fmt.Errorf("failed to insert comment %s: %w", c.ID, err)
			}
		}

		return tx.SetCommentCount(ctx, videoID, len(ordered))
	})
	if err != nil {
		return 0, err
	}
	return len(ordered), nil
}

// orderComments validates the set, collapses repeated ids (the last copy
// wins, at the position of the first) and puts top-level comments before
// replies.
func orderComments(videoID string, comments []*domain.Comment) ([]*domain.Comment, error) {
	pos := make(map[string]int, len(comments))
	unique := make([]*domain.Comment, 0, len(comments))
	for _, c := range comments {
		if i, ok := pos[c.ID]; ok {
			unique[i] = c
			continue
		}
		pos[c.ID] = len(unique)
		unique = append(unique, c)
	}

	ordered := make([]*domain.Comment, 0, len(unique))
	var replies []*domain.Comment
	for _, c := range unique {
		c.VideoID = videoID
		c.PublishedAt = c.PublishedAt.UTC()
		c.UpdatedAt = c.UpdatedAt.UTC()
		if c.ParentID == nil {
			ordered = append(ordered, c)
			continue
		}
		if _, ok := pos[*c.ParentID]; !ok {
			return nil, fmt.Errorf("comment %s parent %s: %w", c.ID, *c.ParentID, ErrOrphanReply)
		}
		replies = append(replies, c)
	}
	return append(ordered, replies...), nil
}

func (db *DB) ListComments(ctx context.Context, videoID string) ([]*domain.Comment, error) {
	query := db.Rebind(`SELECT ` + commentColumns + ` FROM comments WHERE video_id = ? ORDER BY published_at ASC, id ASC`)

	var comments []*domain.Comment
	err := db.SelectContext(ctx, &comments, query, videoID)
	return comments, err
}

func (db *DB) CountComments(ctx context.Context, videoID string) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM comments WHERE video_id = ?`), videoID)
	return count, err
}
