package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

const syncRunColumns = `id, sync_type, status, videos_processed, comments_processed, error, started_at, completed_at`

func (db *DB) CreateSyncRun(ctx context.Context, run *domain.SyncRun) error {
	run.StartedAt = run.StartedAt.UTC()
	query := `INSERT INTO sync_runs (` + syncRunColumns + `) VALUES (
		:id, :sync_type, :status, :videos_processed, :comments_processed, :error, :started_at, :completed_at
	)`
	if _, err := db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// CloseSyncRun sets the final state of a running sync run. It reports false
// when the run does not exist or was already closed.
func (db *DB) CloseSyncRun(ctx context.Context, id string, status domain.RunStatus, videos, comments int, errText *string) (bool, error) {
	query := db.Rebind(`UPDATE sync_runs
		SET status = ?, videos_processed = ?, comments_processed = ?, error = ?, completed_at = ?
		WHERE id = ? AND status = ?`)
	res, err := db.ExecContext(ctx, query, status, videos, comments, errText, time.Now().UTC(), id, domain.RunStatusRunning)
	if err != nil {
		return false, fmt.Errorf("failed to close sync run %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (db *DB) GetSyncRun(ctx context.Context, id string) (*domain.SyncRun, error) {
	var run domain.SyncRun
	err := db.GetContext(ctx, &run, db.Rebind(`SELECT `+syncRunColumns+` FROM sync_runs WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

func (db *DB) ListSyncRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	query := db.Rebind(`SELECT ` + syncRunColumns + ` FROM sync_runs ORDER BY started_at DESC LIMIT ?`)

	var runs []*domain.SyncRun
	err := db.SelectContext(ctx, &runs, query, limit)
	return runs, err
}

// GetRunningSyncRun returns the newest run still marked running.
func (db *DB) GetRunningSyncRun(ctx context.Context) (*domain.SyncRun, error) {
	query := db.Rebind(`SELECT ` + syncRunColumns + ` FROM sync_runs WHERE status = ? ORDER BY started_at DESC LIMIT 1`)

	var run domain.SyncRun
	if err := db.GetContext(ctx, &run, query, domain.RunStatusRunning); err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

// FailRunningSyncRuns closes every running row with reason. Used at startup
// when no run can legitimately be active.
func (db *DB) FailRunningSyncRuns(ctx context.Context, reason string) (int64, error) {
	query := db.Rebind(`UPDATE sync_runs SET status = ?, error = ?, completed_at = ? WHERE status = ?`)
	res, err := db.ExecContext(ctx, query, domain.RunStatusFailed, reason, time.Now().UTC(), domain.RunStatusRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
