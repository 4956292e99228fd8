package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cesargomez89/tubearchive/internal/domain"
	"github.com/cesargomez89/tubearchive/internal/store"
)

func setupTestDB(t *testing.T) (*store.DB, func()) {
	t.Helper()
	db, err := store.NewSQLiteDB(context.Background(), filepath.Join(t.TempDir(), "test_app.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	cleanup := func() {
		db.Close()
	}
	return db, cleanup
}

// fakeAcquirer succeeds for every id not in fail and records calls. Ids in
// onDisk are reported by Locate; took is how long each Acquire lasts.
type fakeAcquirer struct {
	mu     sync.Mutex
	fail   map[string]string
	calls  []string
	panic  map[string]bool
	onDisk map[string]string
	took   time.Duration
	spans  [][2]time.Time
}

func newFakeAcquirer() *fakeAcquirer {
	return &fakeAcquirer{fail: map[string]string{}, panic: map[string]bool{}, onDisk: map[string]string{}}
}

func (f *fakeAcquirer) Locate(videoID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path, ok := f.onDisk[videoID]
	return path, ok
}

// Spans returns the start and end of every Acquire call.
func (f *fakeAcquirer) Spans() [][2]time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]time.Time(nil), f.spans...)
}

func (f *fakeAcquirer) Acquire(ctx context.Context, videoID, title string) Outcome {
	start := time.Now()
	f.mu.Lock()
	f.calls = append(f.calls, videoID)
	reason, failing := f.fail[videoID]
	shouldPanic := f.panic[videoID]
	took := f.took
	f.mu.Unlock()

	if took > 0 {
		time.Sleep(took)
	}
	f.mu.Lock()
	f.spans = append(f.spans, [2]time.Time{start, time.Now()})
	f.mu.Unlock()

	if shouldPanic {
		panic("acquirer exploded")
	}
	if failing {
		return Outcome{Reason: reason}
	}
	return Outcome{Success: true, Path: filepath.Join("/media", videoID+".mp4")}
}

func (f *fakeAcquirer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type domainStore struct {
	t  *testing.T
	db *store.DB
}

func (s *domainStore) video(id string) *domain.Video {
	s.t.Helper()
	v, err := s.db.GetVideo(context.Background(), id)
	if err != nil {
		s.t.Fatalf("GetVideo(%s) failed: %v", id, err)
	}
	return v
}

func (s *domainStore) commentCount(id string) int {
	s.t.Helper()
	n, err := s.db.CountComments(context.Background(), id)
	if err != nil {
		s.t.Fatalf("CountComments(%s) failed: %v", id, err)
	}
	return n
}
