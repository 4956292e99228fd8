package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/logger"
)

// Recoverer cleans up runs left open by a previous process.
type Recoverer interface {
	RecoverInterrupted(ctx context.Context) error
}

// Worker owns the background side of the engine: triggered runs and the
// cron schedule. Runs it starts outlive the request that triggered them and
// stop only with the worker.
type Worker struct {
	coordinator *Coordinator
	recoverer   Recoverer
	cron        *cron.Cron
	logger      *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	schedule    string
	mu          sync.Mutex
	wg          sync.WaitGroup
}

// NewWorker builds a Worker. An empty schedule disables periodic runs.
func NewWorker(coordinator *Coordinator, recoverer Recoverer, schedule string, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Worker{
		coordinator: coordinator,
		recoverer:   recoverer,
		cron:        cron.New(),
		logger:      log.WithComponent("worker"),
		ctx:         ctx,
		cancel:      cancel,
		schedule:    schedule,
	}
}

func (w *Worker) Start() error {
	w.logger.Info("Starting worker")

	if w.recoverer != nil {
		if err := w.recoverer.RecoverInterrupted(w.ctx); err != nil {
			w.logger.Error("Failed to recover interrupted runs", "error", err)
		}
	}

	if w.schedule == "" {
		w.logger.Info("Sync schedule disabled")
		return nil
	}

	if _, err := w.cron.AddFunc(w.schedule, w.scheduledSync); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.logger.Info("Sync scheduled", "cron", w.schedule)
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker")
	<-w.cron.Stop().Done()
	w.mu.Lock()
	w.cancel()
	w.mu.Unlock()
	w.wg.Wait()
}

// Trigger starts a run in the background. The lease is taken before
// returning so a conflict is reported to the caller as ErrRunInProgress.
// Run errors are only logged.
func (w *Worker) Trigger(syncType domain.SyncType) error {
	if !knownSyncType(syncType) {
		return fmt.Errorf("%w: %q", ErrUnknownSyncType, syncType)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ctx.Err(); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}

	release, err := w.coordinator.lease.TryAcquire(w.ctx)
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer release()
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("Panic in triggered sync", "sync_type", syncType, "panic", r)
			}
		}()

		if _, err := w.coordinator.dispatch(w.ctx, syncType); err != nil {
			w.logger.Error("Triggered sync failed", "sync_type", syncType, "error", err)
		}
	}()
	return nil
}

func (w *Worker) scheduledSync() {
	w.logger.Info("Running scheduled sync")
	err := w.Trigger(domain.SyncTypeIncremental)
	if errors.Is(err, ErrRunInProgress) {
		w.logger.Warn("Scheduled sync skipped, a run is already in progress")
		return
	}
	if err != nil {
		w.logger.Error("Scheduled sync could not start", "error", err)
	}
}
