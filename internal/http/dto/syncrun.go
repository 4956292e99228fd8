package dto

import (
	"time"

	"github.com/cesargomez89/tubearchive/internal/domain"
)

type SyncRunResponse struct {
	CompletedAt       *string `json:"completed_at"`
	Error             *string `json:"error"`
	ID                string  `json:"id"`
	SyncType          string  `json:"sync_type"`
	Status            string  `json:"status"`
	StartedAt         string  `json:"started_at"`
	VideosProcessed   int     `json:"videos_processed"`
	CommentsProcessed int     `json:"comments_processed"`
}

func NewSyncRunResponse(r *domain.SyncRun) SyncRunResponse {
	resp := SyncRunResponse{
		ID:                r.ID,
		SyncType:          string(r.Type),
		Status:            string(r.Status),
		StartedAt:         r.StartedAt.UTC().Format(time.RFC3339),
		VideosProcessed:   r.VideosProcessed,
		CommentsProcessed: r.CommentsProcessed,
		Error:             r.Error,
	}
	if r.CompletedAt != nil {
		completed := r.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

func NewSyncRunList(runs []*domain.SyncRun) []SyncRunResponse {
	out := make([]SyncRunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, NewSyncRunResponse(r))
	}
	return out
}

type TriggerRequest struct {
	SyncType string `json:"syncType"`
}

type TriggerResponse struct {
	Message  string `json:"message"`
	SyncType string `json:"syncType"`
	Accepted bool   `json:"accepted"`
}

type ProgressResponse struct {
	Run     *SyncRunResponse `json:"run,omitempty"`
	Running bool             `json:"running"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
