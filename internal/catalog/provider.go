package catalog

import (
	"context"
	"errors"
	"iter"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrBatchTooLarge   = errors.New("too many ids in one details batch")
)

// Provider is the remote catalog a sync pulls from.
type Provider interface {
	FetchChannel(ctx context.Context, channelID string) (*domain.ChannelInfo, error)
	// ListVideoIDs lazily walks the uploads playlist from the first page. A
	// page error is yielded once and ends the sequence.
	ListVideoIDs(ctx context.Context, uploadsPlaylistID string) iter.Seq2[string, error]
	FetchVideoDetails(ctx context.Context, ids []string) ([]domain.VideoInfo, error)
	ListVideos(ctx context.Context, uploadsPlaylistID string) ([]domain.VideoInfo, error)
	// FetchComments returns every top-level comment and reply of a video.
	// Videos with comments disabled yield an empty slice.
	FetchComments(ctx context.Context, videoID string) ([]domain.CommentInfo, error)
}
