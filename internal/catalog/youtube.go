package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/cesargomez89/tubearchive/internal/constants"
	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/logger"
)

type YouTubeConfig struct {
	// HTTPClient carries auth and pacing. See httpclient.NewClient.
	HTTPClient *http.Client
	// Endpoint overrides the API base URL. Empty uses the public endpoint.
	Endpoint   string
	BatchDelay time.Duration
	Logger     *logger.Logger
}

// YouTubeProvider implements Provider on the YouTube Data API v3.
type YouTubeProvider struct {
	svc        *youtube.Service
	batchDelay time.Duration
	logger     *logger.Logger
}

func NewYouTubeProvider(ctx context.Context, cfg YouTubeConfig) (*YouTubeProvider, error) {
	opts := []option.ClientOption{option.WithHTTPClient(cfg.HTTPClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &YouTubeProvider{
		svc:        svc,
		batchDelay: cfg.BatchDelay,
		logger:     log.WithComponent("youtube"),
	}, nil
}

func (p *YouTubeProvider) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelInfo, error) {
	resp, err := p.svc.Channels.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("channels.list %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	ch := resp.Items[0]
	info := &domain.ChannelInfo{ID: ch.Id}
	if ch.Snippet != nil {
		info.Title = ch.Snippet.Title
		info.Description = ch.Snippet.Description
		info.CustomURL = ch.Snippet.CustomUrl
		info.ThumbnailURL = thumbnailURL(ch.Snippet.Thumbnails)
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		info.UploadsPlaylistID = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	if ch.Statistics != nil {
		info.SubscriberCount = int64(ch.Statistics.SubscriberCount)
		info.VideoCount = int64(ch.Statistics.VideoCount)
		info.ViewCount = int64(ch.Statistics.ViewCount)
	}
	return info, nil
}

func (p *YouTubeProvider) ListVideoIDs(ctx context.Context, uploadsPlaylistID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		pageToken := ""
		for {
			call := p.svc.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(uploadsPlaylistID).
				MaxResults(constants.YouTubeVideosPageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			resp, err := call.Do()
			if err != nil {
				yield("", fmt.Errorf("playlistItems.list %s: %w", uploadsPlaylistID, err))
				return
			}

			for _, item := range resp.Items {
				if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
					continue
				}
				if !yield(item.ContentDetails.VideoId, nil) {
					return
				}
			}

			if resp.NextPageToken == "" {
				return
			}
			pageToken = resp.NextPageToken
		}
	}
}

func (p *YouTubeProvider) FetchVideoDetails(ctx context.Context, ids []string) ([]domain.VideoInfo, error) {
	if len(ids) > constants.YouTubeDetailsBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), constants.YouTubeDetailsBatchSize)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	resp, err := p.svc.Videos.List([]string{"snippet", "contentDetails", "statistics", "status"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}

	videos := make([]domain.VideoInfo, 0, len(resp.Items))
	for _, v := range resp.Items {
		videos = append(videos, p.convertVideo(v))
	}
	return videos, nil
}

func (p *YouTubeProvider) convertVideo(v *youtube.Video) domain.VideoInfo {
	info := domain.VideoInfo{ID: v.Id, PrivacyStatus: "public", Tags: []string{}}

	if s := v.Snippet; s != nil {
		info.ChannelID = s.ChannelId
		info.Title = s.Title
		info.Description = s.Description
		info.CategoryID = s.CategoryId
		info.ThumbnailURL = thumbnailURL(s.Thumbnails)
		if len(s.Tags) > 0 {
			info.Tags = s.Tags
		}
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			info.UploadDate = t.UTC()
		} else {
			p.logger.Warn("Unparseable publish date", "video_id", v.Id, "published_at", s.PublishedAt)
		}
	}
	if cd := v.ContentDetails; cd != nil {
		secs, ok := ParseDuration(cd.Duration)
		if !ok {
			p.logger.Warn("Unparseable duration", "video_id", v.Id, "duration", cd.Duration)
		}
		info.Duration = secs
	}
	if st := v.Statistics; st != nil {
		info.ViewCount = int64(st.ViewCount)
		info.LikeCount = int64(st.LikeCount)
		info.CommentCount = int64(st.CommentCount)
	}
	if v.Status != nil && v.Status.PrivacyStatus != "" {
		info.PrivacyStatus = v.Status.PrivacyStatus
	}
	return info
}

func (p *YouTubeProvider) ListVideos(ctx context.Context, uploadsPlaylistID string) ([]domain.VideoInfo, error) {
	var ids []string
	for id, err := range p.ListVideoIDs(ctx, uploadsPlaylistID) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return fetchInBatches(ctx, ids, p.batchDelay, p.FetchVideoDetails)
}

// fetchInBatches calls fetch for consecutive chunks of ids, sleeping delay
// between chunks. Result order follows ids order.
func fetchInBatches(ctx context.Context, ids []string, delay time.Duration, fetch func(context.Context, []string) ([]domain.VideoInfo, error)) ([]domain.VideoInfo, error) {
	videos := make([]domain.VideoInfo, 0, len(ids))
	for start := 0; start < len(ids); start += constants.YouTubeDetailsBatchSize {
		if start > 0 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		end := min(start+constants.YouTubeDetailsBatchSize, len(ids))
		batch, err := fetch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		videos = append(videos, batch...)
	}
	return videos, nil
}

func (p *YouTubeProvider) FetchComments(ctx context.Context, videoID string) ([]domain.CommentInfo, error) {
	var comments []domain.CommentInfo
	pageToken := ""
	for {
		call := p.svc.CommentThreads.List([]string{"snippet", "replies"}).
			VideoId(videoID).
			MaxResults(constants.YouTubeCommentsPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if commentsDisabled(err) {
				p.logger.Debug("Comments disabled", "video_id", videoID)
				return []domain.CommentInfo{}, nil
			}
			return nil, fmt.Errorf("commentThreads.list %s: %w", videoID, err)
		}

		for _, thread := range resp.Items {
			if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
				continue
			}
			top := convertComment(videoID, thread.Snippet.TopLevelComment, "")
			comments = append(comments, top)
			if thread.Replies == nil {
				continue
			}
			for _, reply := range thread.Replies.Comments {
				comments = append(comments, convertComment(videoID, reply, top.ID))
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	if comments == nil {
		comments = []domain.CommentInfo{}
	}
	return comments, nil
}

func convertComment(videoID string, c *youtube.Comment, parentID string) domain.CommentInfo {
	info := domain.CommentInfo{ID: c.Id, VideoID: videoID, ParentID: parentID}
	s := c.Snippet
	if s == nil {
		return info
	}
	if parentID == "" {
		info.ParentID = s.ParentId
	}
	info.AuthorName = s.AuthorDisplayName
	if s.AuthorChannelId != nil {
		info.AuthorChannelID = s.AuthorChannelId.Value
	}
	info.AuthorProfileImageURL = s.AuthorProfileImageUrl
	info.TextDisplay = s.TextDisplay
	info.TextOriginal = s.TextOriginal
	info.LikeCount = s.LikeCount
	if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
		info.PublishedAt = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s.UpdatedAt); err == nil {
		info.UpdatedAt = t.UTC()
	} else {
		info.UpdatedAt = info.PublishedAt
	}
	return info
}

func commentsDisabled(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusForbidden &&
		len(gerr.Errors) > 0 &&
		gerr.Errors[0].Reason == constants.CommentsDisabledReason
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
