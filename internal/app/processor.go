package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/logger"
)

// VideoStore is the persistence the processor needs.
type VideoStore interface {
	UpsertVideo(ctx context.Context, v *domain.Video) error
	GetVideo(ctx context.Context, id string) (*domain.Video, error)
	SetDownloadStatus(ctx context.Context, id string, status domain.DownloadStatus) error
	MarkVideoCompleted(ctx context.Context, id, filePath string) error
	MarkVideoFailed(ctx context.Context, id string) error
	ReplaceComments(ctx context.Context, videoID string, comments []*domain.Comment) (int, error)
}

type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string) ([]domain.CommentInfo, error)
}

// Result describes what happened to one video. DownloadErr is set when the
// media acquisition failed, Err when any step failed hard. Relinked means
// the media file was already on disk and was attached without downloading.
type Result struct {
	DownloadErr error
	Err         error
	VideoID     string
	Comments    int
	Downloaded  bool
	Relinked    bool
	Skipped     bool
}

func (r Result) OK() bool {
	return r.Err == nil && r.DownloadErr == nil
}

// Processor runs the per-video pipeline: metadata upsert, media acquisition
// and comment refresh.
type Processor struct {
	store    VideoStore
	comments CommentFetcher
	media    Acquirer
	logger   *logger.Logger

	delay       time.Duration
	lastAcquire time.Time
	mu          sync.Mutex
}

// NewProcessor builds a Processor. delay is the minimum gap between two
// acquisitions.
func NewProcessor(store VideoStore, comments CommentFetcher, media Acquirer, delay time.Duration, log *logger.Logger) *Processor {
	return &Processor{
		store:    store,
		comments: comments,
		media:    media,
		delay:    delay,
		logger:   log.WithComponent("processor"),
	}
}

// Process never returns an error: failures are recorded in the Result and
// in the video's download status.
func (p *Processor) Process(ctx context.Context, info domain.VideoInfo, channelID string) (res Result) {
	res.VideoID = info.ID
	log := p.logger.WithVideo(info.ID, info.Title)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic processing video: %v", r)
		}
		if res.Err != nil {
			log.Error("Video processing failed", "error", res.Err)
			// Detached so a cancelled run still records the failure.
			if err := p.store.MarkVideoFailed(context.WithoutCancel(ctx), info.ID); err != nil {
				log.Error("Failed to mark video failed", "error", err)
			}
		}
	}()

	if err := p.store.UpsertVideo(ctx, info.ToVideo(channelID)); err != nil {
		res.Err = err
		return res
	}

	video, err := p.store.GetVideo(ctx, info.ID)
	if err != nil {
		res.Err = fmt.Errorf("failed to read video %s: %w", info.ID, err)
		return res
	}

	if video.DownloadStatus == domain.DownloadStatusCompleted {
		res.Skipped = true
		log.Debug("Media already archived, skipping download")
	} else {
		acq, err := p.acquire(ctx, video.DownloadStatus, info)
		if err != nil {
			res.Err = err
			return res
		}
		res.Downloaded = acq.downloaded
		res.Relinked = acq.relinked
		res.DownloadErr = acq.err
	}

	// Comments refresh even when the download failed.
	n, err := p.RefreshComments(ctx, info.ID)
	if err != nil {
		res.Err = err
		return res
	}
	res.Comments = n

	log.Info("Video processed", "downloaded", res.Downloaded, "relinked", res.Relinked, "skipped", res.Skipped, "comments", n)
	return res
}

type acquisition struct {
	err        error
	downloaded bool
	relinked   bool
}

// acquire drives pending/failed -> downloading -> completed/failed. The
// returned error is a store failure; an acquisition failure is in
// acquisition.err. A file already in the media dir is attached instead of
// downloaded again.
func (p *Processor) acquire(ctx context.Context, from domain.DownloadStatus, info domain.VideoInfo) (acquisition, error) {
	if !from.CanTransition(domain.DownloadStatusDownloading) {
		return acquisition{}, fmt.Errorf("video %s is %s, cannot start acquisition", info.ID, from)
	}
	if err := p.store.SetDownloadStatus(ctx, info.ID, domain.DownloadStatusDownloading); err != nil {
		return acquisition{}, fmt.Errorf("failed to mark %s downloading: %w", info.ID, err)
	}

	if path, ok := p.media.Locate(info.ID); ok {
		if err := p.store.MarkVideoCompleted(ctx, info.ID, path); err != nil {
			return acquisition{}, fmt.Errorf("failed to mark %s completed: %w", info.ID, err)
		}
		p.logger.Info("Media already on disk, relinked", "video_id", info.ID, "path", path)
		return acquisition{relinked: true}, nil
	}

	if err := p.pace(ctx); err != nil {
		return acquisition{}, err
	}

	out := p.acquireMedia(ctx, info)
	if !out.Success {
		if err := p.store.MarkVideoFailed(ctx, info.ID); err != nil {
			return acquisition{}, fmt.Errorf("failed to mark %s failed: %w", info.ID, err)
		}
		return acquisition{err: errors.New(out.Reason)}, nil
	}

	if err := p.store.MarkVideoCompleted(ctx, info.ID, out.Path); err != nil {
		return acquisition{}, fmt.Errorf("failed to mark %s completed: %w", info.ID, err)
	}
	return acquisition{downloaded: true}, nil
}

// acquireMedia runs the acquirer and stamps the end of the attempt, so the
// next acquisition waits delay after this one finished.
func (p *Processor) acquireMedia(ctx context.Context, info domain.VideoInfo) Outcome {
	defer func() {
		p.mu.Lock()
		p.lastAcquire = time.Now()
		p.mu.Unlock()
	}()
	return p.media.Acquire(ctx, info.ID, info.Title)
}

// pace waits until delay has passed since the previous acquisition ended.
func (p *Processor) pace(ctx context.Context) error {
	p.mu.Lock()
	wait := time.Until(p.lastAcquire.Add(p.delay))
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RefreshComments replaces the stored comments of videoID with the current
// remote set and returns how many were stored.
func (p *Processor) RefreshComments(ctx context.Context, videoID string) (int, error) {
	infos, err := p.comments.FetchComments(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch comments for %s: %w", videoID, err)
	}

	comments := make([]*domain.Comment, 0, len(infos))
	for i := range infos {
		c := infos[i].ToComment()
		c.VideoID = videoID
		comments = append(comments, c)
	}

	n, err := p.store.ReplaceComments(ctx, videoID, comments)
	if err != nil {
		return 0, fmt.Errorf("failed to store comments for %s: %w", videoID, err)
	}
	return n, nil
}
