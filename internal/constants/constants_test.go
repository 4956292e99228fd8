package constants

import (
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	if DefaultPort != "8080" {
		t.Errorf("Expected DefaultPort to be '8080', got '%s'", DefaultPort)
	}

	if DefaultDBDriver != DriverSQLite {
		t.Errorf("Expected DefaultDBDriver to be '%s', got '%s'", DriverSQLite, DefaultDBDriver)
	}

	if DefaultSyncCron != "0 2 * * *" {
		t.Errorf("Expected DefaultSyncCron to be '0 2 * * *', got '%s'", DefaultSyncCron)
	}

	if DefaultCommentRefreshMonths != 6 {
		t.Errorf("Expected DefaultCommentRefreshMonths to be 6, got %d", DefaultCommentRefreshMonths)
	}
}

func TestDelays(t *testing.T) {
	if DefaultDownloadDelay != 1*time.Second {
		t.Errorf("Expected DefaultDownloadDelay to be 1 second, got %v", DefaultDownloadDelay)
	}

	if DefaultBatchDelay != 100*time.Millisecond {
		t.Errorf("Expected DefaultBatchDelay to be 100ms, got %v", DefaultBatchDelay)
	}

	if DefaultRetryBase != 1*time.Second {
		t.Errorf("Expected DefaultRetryBase to be 1 second, got %v", DefaultRetryBase)
	}
}

func TestPageSizes(t *testing.T) {
	if YouTubeVideosPageSize != 50 {
		t.Errorf("Expected YouTubeVideosPageSize to be 50, got %d", YouTubeVideosPageSize)
	}

	if YouTubeDetailsBatchSize != 50 {
		t.Errorf("Expected YouTubeDetailsBatchSize to be 50, got %d", YouTubeDetailsBatchSize)
	}

	if YouTubeCommentsPageSize != 100 {
		t.Errorf("Expected YouTubeCommentsPageSize to be 100, got %d", YouTubeCommentsPageSize)
	}
}

func TestTables(t *testing.T) {
	tables := []string{
		ChannelsTable,
		VideosTable,
		CommentsTable,
		SyncRunsTable,
	}

	for _, table := range tables {
		if table == "" {
			t.Error("Table constant should not be empty")
		}
	}
}

func TestExtMP4(t *testing.T) {
	if ExtMP4[0] != '.' {
		t.Errorf("File extension %s should start with .", ExtMP4)
	}
}

func TestInvalidPathChars(t *testing.T) {
	if InvalidPathChars == "" {
		t.Error("InvalidPathChars should not be empty")
	}
}
