package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cesargomez89/tubearchive/internal/http/dto"
	"github.com/cesargomez89/tubearchive/internal/worker"
)

const maxTriggerBody = 1 << 16

func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req dto.TriggerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTriggerBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	syncType, errs := req.Validate()
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	err := h.Syncer.Trigger(syncType)
	switch {
	case errors.Is(err, worker.ErrRunInProgress):
		h.writeError(w, http.StatusConflict, "a sync is already running")
		return
	case errors.Is(err, worker.ErrUnknownSyncType):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Logger.Error("Failed to trigger sync", "sync_type", syncType, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to trigger sync")
		return
	}

	h.Logger.Info("Sync triggered", "sync_type", syncType)
	h.writeJSON(w, http.StatusAccepted, dto.TriggerResponse{
		Accepted: true,
		SyncType: string(syncType),
		Message:  string(syncType) + " sync started",
	})
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	limit, errs := dto.ParseLimit(r.URL.Query().Get("limit"))
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	runs, err := h.Runs.History(r.Context(), limit)
	if err != nil {
		h.Logger.Error("Failed to list sync runs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch sync status")
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewSyncRunList(runs))
}

func (h *Handler) SyncProgress(w http.ResponseWriter, r *http.Request) {
	run, err := h.Runs.Current(r.Context())
	if err != nil {
		h.Logger.Error("Failed to get running sync", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch sync progress")
		return
	}
	if run == nil {
		h.writeJSON(w, http.StatusOK, dto.ProgressResponse{})
		return
	}
	resp := dto.NewSyncRunResponse(run)
	h.writeJSON(w, http.StatusOK, dto.ProgressResponse{Running: true, Run: &resp})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			h.Logger.Warn("Health check failed", "error", err)
			resp.Status = "error"
			resp.Error = "database unavailable"
			h.writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}
