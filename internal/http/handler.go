package httpapp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/http/dto"
	"github.com/cesargomez89/tubearchive/internal/logger"
)

// Syncer starts sync runs in the background.
type Syncer interface {
	Trigger(syncType domain.SyncType) error
}

type RunHistory interface {
	History(ctx context.Context, limit int) ([]*domain.SyncRun, error)
	Current(ctx context.Context) (*domain.SyncRun, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Syncer Syncer
	Runs   RunHistory
	DB     Pinger
	Logger *logger.Logger
}

func NewHandler(syncer Syncer, runs RunHistory, db Pinger, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Syncer: syncer,
		Runs:   runs,
		DB:     db,
		Logger: log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api/sync", func(r chi.Router) {
		r.Post("/trigger", h.TriggerSync)
		r.Get("/status", h.SyncStatus)
		r.Get("/progress", h.SyncProgress)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

func (h *Handler) writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		Error:  dto.ToResponse(errs),
		Fields: dto.ToMap(errs),
	})
}
