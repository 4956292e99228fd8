package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/http/dto"
	"github.com/cesargomez89/tubearchive/internal/logger"
	"github.com/cesargomez89/tubearchive/internal/worker"
)

type fakeSyncer struct {
	err       error
	triggered []domain.SyncType
}

func (f *fakeSyncer) Trigger(syncType domain.SyncType) error {
	if f.err != nil {
		return f.err
	}
	f.triggered = append(f.triggered, syncType)
	return nil
}

type fakeRuns struct {
	err       error
	runs      []*domain.SyncRun
	current   *domain.SyncRun
	lastLimit int
}

func (f *fakeRuns) History(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

func (f *fakeRuns) Current(ctx context.Context) (*domain.SyncRun, error) {
	return f.current, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestRouter(s Syncer, runs RunHistory, db Pinger) http.Handler {
	r := chi.NewRouter()
	NewHandler(s, runs, db, logger.Discard()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTriggerSync(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		syncErr    error
		wantStatus int
		wantType   domain.SyncType
	}{
		{"default incremental", `{}`, nil, http.StatusAccepted, domain.SyncTypeIncremental},
		{"empty body", ``, nil, http.StatusAccepted, domain.SyncTypeIncremental},
		{"full", `{"syncType":"full"}`, nil, http.StatusAccepted, domain.SyncTypeFull},
		{"unknown type", `{"syncType":"weekly"}`, nil, http.StatusBadRequest, ""},
		{"malformed", `{"syncType":`, nil, http.StatusBadRequest, ""},
		{"already running", `{"syncType":"full"}`, worker.ErrRunInProgress, http.StatusConflict, ""},
		{"internal error", `{}`, errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{err: tt.syncErr}
			rec := do(t, newTestRouter(syncer, &fakeRuns{}, nil), http.MethodPost, "/api/sync/trigger", tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusAccepted {
				assert.Empty(t, syncer.triggered)
				return
			}

			var resp dto.TriggerResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Accepted)
			assert.Equal(t, string(tt.wantType), resp.SyncType)
			assert.Equal(t, []domain.SyncType{tt.wantType}, syncer.triggered)
		})
	}
}

func TestSyncStatus(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	runs := &fakeRuns{runs: []*domain.SyncRun{
		{ID: "r2", Type: domain.SyncTypeIncremental, Status: domain.RunStatusRunning, StartedAt: started.Add(time.Hour)},
		{ID: "r1", Type: domain.SyncTypeFull, Status: domain.RunStatusCompleted, StartedAt: started, CompletedAt: &started, VideosProcessed: 3},
	}}
	router := newTestRouter(&fakeSyncer{}, runs, nil)

	rec := do(t, router, http.MethodGet, "/api/sync/status?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.lastLimit)

	var got []dto.SyncRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID)
	assert.Equal(t, "2024-01-02T03:04:05Z", got[1].StartedAt)
	assert.Equal(t, 3, got[1].VideosProcessed)

	rec = do(t, router, http.MethodGet, "/api/sync/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, runs.lastLimit)

	rec = do(t, router, http.MethodGet, "/api/sync/status?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncStatus_EmptyIsArray(t *testing.T) {
	rec := do(t, newTestRouter(&fakeSyncer{}, &fakeRuns{}, nil), http.MethodGet, "/api/sync/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSyncStatus_StoreError(t *testing.T) {
	rec := do(t, newTestRouter(&fakeSyncer{}, &fakeRuns{err: errors.New("db down")}, nil), http.MethodGet, "/api/sync/status", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSyncProgress(t *testing.T) {
	runs := &fakeRuns{}
	router := newTestRouter(&fakeSyncer{}, runs, nil)

	rec := do(t, router, http.MethodGet, "/api/sync/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":false}`, rec.Body.String())

	runs.current = &domain.SyncRun{ID: "r1", Type: domain.SyncTypeFull, Status: domain.RunStatusRunning, StartedAt: time.Now()}
	rec = do(t, router, http.MethodGet, "/api/sync/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Running)
	require.NotNil(t, resp.Run)
	assert.Equal(t, "r1", resp.Run.ID)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&fakeSyncer{}, &fakeRuns{}, fakePinger{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)

	rec = do(t, newTestRouter(&fakeSyncer{}, &fakeRuns{}, fakePinger{err: errors.New("closed")}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
