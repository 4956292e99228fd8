package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/tubearchive/internal/constants"
	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/logger"
	"github.com/cesargomez89/tubearchive/internal/store"
)

var ErrRunClosed = errors.New("sync run is not running")

type RunStore interface {
	CreateSyncRun(ctx context.Context, run *domain.SyncRun) error
	CloseSyncRun(ctx context.Context, id string, status domain.RunStatus, videos, comments int, errText *string) (bool, error)
	ListSyncRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error)
	GetRunningSyncRun(ctx context.Context) (*domain.SyncRun, error)
	FailRunningSyncRuns(ctx context.Context, reason string) (int64, error)
	ResetDownloadingVideos(ctx context.Context) (int64, error)
}

// Ledger records one row per sync run. A row is opened running and closed
// exactly once.
type Ledger struct {
	store  RunStore
	logger *logger.Logger
}

func NewLedger(store RunStore, log *logger.Logger) *Ledger {
	return &Ledger{store: store, logger: log.WithComponent("ledger")}
}

func (l *Ledger) Open(ctx context.Context, syncType domain.SyncType) (*domain.SyncRun, error) {
	run := &domain.SyncRun{
		ID:        uuid.New().String(),
		Type:      syncType,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := l.store.CreateSyncRun(ctx, run); err != nil {
		return nil, err
	}
	l.logger.Info("Sync run opened", "run_id", run.ID, "sync_type", syncType)
	return run, nil
}

func (l *Ledger) Complete(ctx context.Context, id string, videos, comments int) error {
	return l.close(ctx, id, domain.RunStatusCompleted, videos, comments, nil)
}

func (l *Ledger) Fail(ctx context.Context, id string, videos, comments int, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return l.close(ctx, id, domain.RunStatusFailed, videos, comments, &msg)
}

func (l *Ledger) close(ctx context.Context, id string, status domain.RunStatus, videos, comments int, errText *string) error {
	closed, err := l.store.CloseSyncRun(ctx, id, status, videos, comments, errText)
	if err != nil {
		return err
	}
	if !closed {
		return fmt.Errorf("%w: %s", ErrRunClosed, id)
	}
	l.logger.Info("Sync run closed", "run_id", id, "status", status, "videos", videos, "comments", comments)
	return nil
}

// History returns the newest runs first. A non-positive limit uses the default.
func (l *Ledger) History(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	runs, err := l.store.ListSyncRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []*domain.SyncRun{}
	}
	return runs, nil
}

// Current returns the active run or nil.
func (l *Ledger) Current(ctx context.Context) (*domain.SyncRun, error) {
	run, err := l.store.GetRunningSyncRun(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return run, err
}

// RecoverInterrupted closes runs and downloads left open by a previous
// process. Call it before any run can start.
func (l *Ledger) RecoverInterrupted(ctx context.Context) error {
	runs, err := l.store.FailRunningSyncRuns(ctx, constants.InterruptedReason)
	if err != nil {
		return fmt.Errorf("failed to close interrupted runs: %w", err)
	}
	videos, err := l.store.ResetDownloadingVideos(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset interrupted downloads: %w", err)
	}
	if runs > 0 || videos > 0 {
		l.logger.Warn("Recovered interrupted work", "runs", runs, "videos", videos)
	}
	return nil
}
