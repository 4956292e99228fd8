package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/tubearchive/internal/app"
	"github.com/cesargomez89/tubearchive/internal/constants"
	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/logger"
)

var ErrUnknownSyncType = errors.New("unknown sync type")

type CatalogSource interface {
	FetchChannel(ctx context.Context, channelID string) (*domain.ChannelInfo, error)
	ListVideos(ctx context.Context, uploadsPlaylistID string) ([]domain.VideoInfo, error)
}

type SyncStore interface {
	UpsertChannel(ctx context.Context, ch *domain.Channel) error
	VideoExists(ctx context.Context, id string) (bool, error)
	ListVideosUploadedSince(ctx context.Context, since time.Time) ([]*domain.Video, error)
}

type ItemProcessor interface {
	Process(ctx context.Context, info domain.VideoInfo, channelID string) app.Result
	RefreshComments(ctx context.Context, videoID string) (int, error)
}

type RunLedger interface {
	Open(ctx context.Context, syncType domain.SyncType) (*domain.SyncRun, error)
	Complete(ctx context.Context, id string, videos, comments int) error
	Fail(ctx context.Context, id string, videos, comments int, cause error) error
}

// Summary reports the outcome of one run. VideosProcessed counts every item
// attempted; Succeeded and Failed split it by outcome.
type Summary struct {
	// Refresh is the nested comment refresh of an incremental run.
	Refresh           *Summary
	RunID             string
	Type              domain.SyncType
	Duration          time.Duration
	VideosProcessed   int
	CommentsProcessed int
	Succeeded         int
	Failed            int
}

type CoordinatorConfig struct {
	ChannelID            string
	CommentRefreshMonths int
}

// Coordinator drives full, incremental and comment-refresh runs. Runs are
// sequential and guarded by a Lease.
type Coordinator struct {
	catalog   CatalogSource
	store     SyncStore
	processor ItemProcessor
	ledger    RunLedger
	lease     Lease
	logger    *logger.Logger
	now       func() time.Time
	cfg       CoordinatorConfig
}

func NewCoordinator(cfg CoordinatorConfig, catalog CatalogSource, store SyncStore, processor ItemProcessor, ledger RunLedger, lease Lease, log *logger.Logger) *Coordinator {
	if cfg.CommentRefreshMonths <= 0 {
		cfg.CommentRefreshMonths = constants.DefaultCommentRefreshMonths
	}
	if lease == nil {
		lease = NewLocalLease()
	}
	return &Coordinator{
		catalog:   catalog,
		store:     store,
		processor: processor,
		ledger:    ledger,
		lease:     lease,
		logger:    log.WithComponent("coordinator"),
		now:       time.Now,
		cfg:       cfg,
	}
}

func (c *Coordinator) FullSync(ctx context.Context) (*Summary, error) {
	return c.Run(ctx, domain.SyncTypeFull)
}

func (c *Coordinator) IncrementalSync(ctx context.Context) (*Summary, error) {
	return c.Run(ctx, domain.SyncTypeIncremental)
}

func (c *Coordinator) RefreshRecentComments(ctx context.Context) (*Summary, error) {
	return c.Run(ctx, domain.SyncTypeCommentRefresh)
}

// Run takes the lease and runs one sync of the given type. When the lease
// is held elsewhere it returns ErrRunInProgress and records nothing.
func (c *Coordinator) Run(ctx context.Context, syncType domain.SyncType) (*Summary, error) {
	if !knownSyncType(syncType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSyncType, syncType)
	}
	release, err := c.lease.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.dispatch(ctx, syncType)
}

// dispatch runs a sync with the lease already held.
func (c *Coordinator) dispatch(ctx context.Context, syncType domain.SyncType) (*Summary, error) {
	switch syncType {
	case domain.SyncTypeFull:
		return c.record(ctx, syncType, c.fullSync)
	case domain.SyncTypeIncremental:
		return c.record(ctx, syncType, c.incrementalSync)
	case domain.SyncTypeCommentRefresh:
		return c.record(ctx, syncType, c.refreshComments)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSyncType, syncType)
}

func knownSyncType(t domain.SyncType) bool {
	switch t {
	case domain.SyncTypeFull, domain.SyncTypeIncremental, domain.SyncTypeCommentRefresh:
		return true
	}
	return false
}

type runBody func(ctx context.Context, sum *Summary, log *logger.Logger) error

// record wraps body in a ledger entry that is closed exactly once.
func (c *Coordinator) record(ctx context.Context, syncType domain.SyncType, body runBody) (*Summary, error) {
	run, err := c.ledger.Open(ctx, syncType)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync run: %w", err)
	}

	sum := &Summary{RunID: run.ID, Type: syncType}
	log := c.logger.WithRun(run.ID, string(syncType))
	log.Info("Sync started")
	start := c.now()

	err = c.guard(ctx, sum, log, body)
	sum.Duration = c.now().Sub(start)

	// Closing must survive a cancelled run context.
	closeCtx := context.WithoutCancel(ctx)
	if err != nil {
		log.Error("Sync failed", "error", err, "videos", sum.VideosProcessed, "comments", sum.CommentsProcessed)
		if ferr := c.ledger.Fail(closeCtx, run.ID, sum.VideosProcessed, sum.CommentsProcessed, err); ferr != nil {
			log.Error("Failed to record sync failure", "error", ferr)
		}
		return sum, err
	}

	if err := c.ledger.Complete(closeCtx, run.ID, sum.VideosProcessed, sum.CommentsProcessed); err != nil {
		err = fmt.Errorf("failed to close sync run: %w", err)
		log.Error("Failed to record sync completion", "error", err)
		// A run left running would block progress reporting until restart.
		if ferr := c.ledger.Fail(closeCtx, run.ID, sum.VideosProcessed, sum.CommentsProcessed, err); ferr != nil {
			log.Error("Failed to record sync failure", "error", ferr)
		}
		return sum, err
	}
	log.Info("Sync completed",
		"videos", sum.VideosProcessed,
		"comments", sum.CommentsProcessed,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"duration", sum.Duration,
	)
	return sum, nil
}

func (c *Coordinator) guard(ctx context.Context, sum *Summary, log *logger.Logger, body runBody) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during sync: %v", r)
		}
	}()
	return body(ctx, sum, log)
}

func (c *Coordinator) syncChannel(ctx context.Context) (*domain.ChannelInfo, error) {
	info, err := c.catalog.FetchChannel(ctx, c.cfg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", c.cfg.ChannelID, err)
	}
	if err := c.store.UpsertChannel(ctx, info.ToChannel()); err != nil {
		return nil, fmt.Errorf("failed to save channel %s: %w", info.ID, err)
	}
	return info, nil
}

func (c *Coordinator) listVideos(ctx context.Context, channel *domain.ChannelInfo) ([]domain.VideoInfo, error) {
	videos, err := c.catalog.ListVideos(ctx, channel.UploadsPlaylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel videos: %w", err)
	}
	return videos, nil
}

func (c *Coordinator) process(ctx context.Context, sum *Summary, info domain.VideoInfo, channelID string) {
	res := c.processor.Process(ctx, info, channelID)
	sum.VideosProcessed++
	sum.CommentsProcessed += res.Comments
	if res.OK() {
		sum.Succeeded++
	} else {
		sum.Failed++
	}
}

func (c *Coordinator) fullSync(ctx context.Context, sum *Summary, log *logger.Logger) error {
	channel, err := c.syncChannel(ctx)
	if err != nil {
		return err
	}
	videos, err := c.listVideos(ctx, channel)
	if err != nil {
		return err
	}
	log.Info("Videos listed", "count", len(videos))

	for i, info := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.process(ctx, sum, info, channel.ID)
		if (i+1)%10 == 0 {
			log.Info("Sync progress", "processed", i+1, "total", len(videos))
		}
	}
	return nil
}

func (c *Coordinator) incrementalSync(ctx context.Context, sum *Summary, log *logger.Logger) error {
	channel, err := c.syncChannel(ctx)
	if err != nil {
		return err
	}
	videos, err := c.listVideos(ctx, channel)
	if err != nil {
		return err
	}

	for _, info := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		exists, err := c.store.VideoExists(ctx, info.ID)
		if err != nil {
			return fmt.Errorf("failed to check video %s: %w", info.ID, err)
		}
		if exists {
			continue
		}
		log.Info("New video found", "video_id", info.ID, "video_title", info.Title)
		c.process(ctx, sum, info, channel.ID)
	}

	refresh, err := c.record(ctx, domain.SyncTypeCommentRefresh, c.refreshComments)
	sum.Refresh = refresh
	if err != nil {
		return fmt.Errorf("comment refresh failed: %w", err)
	}
	return nil
}

func (c *Coordinator) refreshComments(ctx context.Context, sum *Summary, log *logger.Logger) error {
	since := c.now().UTC().AddDate(0, -c.cfg.CommentRefreshMonths, 0)
	videos, err := c.store.ListVideosUploadedSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list recent videos: %w", err)
	}
	log.Info("Refreshing comments", "videos", len(videos), "since", since)

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.processor.RefreshComments(ctx, v.ID)
		sum.VideosProcessed++
		if err != nil {
			log.Warn("Comment refresh failed, skipping video", "video_id", v.ID, "error", err)
			sum.Failed++
			continue
		}
		sum.Succeeded++
		sum.CommentsProcessed += n
	}
	return nil
}
