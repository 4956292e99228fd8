package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesargomez89/tubearchive/internal/app"
	"github.com/cesargomez89/tubearchive/internal/catalog"
	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/logger"
)

// newDisabledCommentsAPI serves one channel with one video whose comment
// threads are answered with 403 commentsDisabled.
func newDisabledCommentsAPI(t *testing.T) *httptest.Server {
	t.Helper()
	reply := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"items": []any{map[string]any{
			"id":             testChannelID,
			"snippet":        map[string]any{"title": "Test Channel"},
			"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UU1"}},
			"statistics":     map[string]any{"videoCount": "1"},
		}}})
	})
	mux.HandleFunc("/youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"items": []any{
			map[string]any{"contentDetails": map[string]any{"videoId": "quiet"}},
		}})
	})
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"items": []any{map[string]any{
			"id": "quiet",
			"snippet": map[string]any{
				"channelId":   testChannelID,
				"title":       "Quiet video",
				"publishedAt": "2024-03-01T10:00:00Z",
			},
			"contentDetails": map[string]any{"duration": "PT5M"},
			"statistics":     map[string]any{"viewCount": "10", "commentCount": "0"},
		}}})
	})
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusForbidden, map[string]any{"error": map[string]any{
			"code":    403,
			"message": "comments are disabled",
			"errors": []any{map[string]any{
				"reason":  "commentsDisabled",
				"domain":  "youtube.commentThread",
				"message": "comments are disabled",
			}},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFullSync_CommentsDisabledCompletesRun(t *testing.T) {
	h := newHarness(t)
	srv := newDisabledCommentsAPI(t)

	provider, err := catalog.NewYouTubeProvider(context.Background(), catalog.YouTubeConfig{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL + "/",
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)

	log := logger.Discard()
	processor := app.NewProcessor(h.db, provider, h.media, 0, log)
	coord := NewCoordinator(CoordinatorConfig{ChannelID: testChannelID}, provider, h.store, processor, h.ledger, h.lease, log)

	sum, err := coord.FullSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.VideosProcessed)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Zero(t, sum.Failed)
	assert.Zero(t, sum.CommentsProcessed)

	runs := h.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusCompleted, runs[0].Status)

	v := h.video(t, "quiet")
	assert.Equal(t, domain.DownloadStatusCompleted, v.DownloadStatus)
	assert.EqualValues(t, 0, v.CommentCount)

	n, err := h.db.CountComments(context.Background(), "quiet")
	require.NoError(t, err)
	assert.Zero(t, n)
}
