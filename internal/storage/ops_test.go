package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Normal Name", "Normal_Name"},
		{"Slash/Name", "SlashName"},
		{"Colon:Name", "ColonName"},
		{"AC/DC Live", "ACDC_Live"},
		{"<Invalid>", "Invalid"},
		{"a / b", "a_b"},
		{"tabs\tand\nnewlines", "tabs_and_newlines"},
		{"  padded  ", "padded"},
		{"***", ""},
		{"?? hello ??", "hello"},
		{"bell\x07char", "bellchar"},
		{"What? Really*", "What_Really"},
		{"", ""},
	}

	for _, tt := range tests {
		got := SanitizeTitle(tt.input)
		if got != tt.expected {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeTitle_Length(t *testing.T) {
	long := strings.Repeat("é", 150)
	got := SanitizeTitle(long)
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Errorf("Expected 100 runes, got %d", n)
	}
	if !utf8.ValidString(got) {
		t.Error("Expected valid UTF-8 after truncation")
	}
}

func TestSanitizeTitle_TruncationLeavesNoTrailingUnderscore(t *testing.T) {
	title := strings.Repeat("a", 99) + " tail"
	got := SanitizeTitle(title)
	if strings.HasSuffix(got, "_") {
		t.Errorf("Expected no trailing underscore, got %q", got)
	}
	if got != strings.Repeat("a", 99) {
		t.Errorf("Unexpected truncation %q", got)
	}
}

func TestSanitizeTitle_Deterministic(t *testing.T) {
	title := "Same <title> | every: time?"
	first := SanitizeTitle(title)
	for i := 0; i < 5; i++ {
		if got := SanitizeTitle(title); got != first {
			t.Fatalf("SanitizeTitle not deterministic: %q vs %q", got, first)
		}
	}
}

func TestMediaFileName(t *testing.T) {
	if got := MediaFileName("abc123", "My Video"); got != "abc123-My_Video.mp4" {
		t.Errorf("MediaFileName = %q", got)
	}
	if got := MediaFileName("abc123", "???"); got != "abc123.mp4" {
		t.Errorf("MediaFileName for empty title = %q", got)
	}
}

func TestFindByPrefix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"abc-Title.mp4", "abc-Title.webp", "abcd-Other.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	path, ok, err := FindByPrefix(dir, "abc", ".mp4")
	if err != nil || !ok {
		t.Fatalf("FindByPrefix failed: ok=%v err=%v", ok, err)
	}
	if filepath.Base(path) != "abc-Title.mp4" {
		t.Errorf("Expected abc-Title.mp4, got %s", path)
	}

	if _, ok, _ := FindByPrefix(dir, "ab", ""); ok {
		t.Error("Expected no match for a bare id prefix")
	}

	if _, ok, err := FindByPrefix(filepath.Join(dir, "missing"), "abc", ""); ok || err != nil {
		t.Errorf("Expected missing dir to report no match, ok=%v err=%v", ok, err)
	}
}

func TestDirStats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]int{"a-One.mp4": 10, "b-Two.mp4": 5, "b-Two.jpg": 100}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := EnsureDir(filepath.Join(dir, "nested.mp4")); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	stats, err := DirStats(dir)
	if err != nil {
		t.Fatalf("DirStats failed: %v", err)
	}
	if stats.VideoCount != 2 || stats.TotalBytes != 15 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	empty, err := DirStats(filepath.Join(dir, "none"))
	if err != nil || empty.VideoCount != 0 {
		t.Errorf("Expected empty stats for missing dir, got %+v, %v", empty, err)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected directory to exist, got %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing dir failed: %v", err)
	}
}
