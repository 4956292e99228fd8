package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cesargomez89/tubearchive/internal/constants"
)

// Stats summarises the media directory.
type Stats struct {
	VideoCount int   `json:"video_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// SanitizeTitle turns a video title into a file name fragment: path-hostile
// and control characters are dropped, whitespace runs become one underscore
// and the result is capped at MaxTitleRunes runes. Underscores left at either
// end are trimmed.
func SanitizeTitle(title string) string {
	var b strings.Builder
	space := false
	for _, r := range title {
		switch {
		case strings.ContainsRune(constants.InvalidPathChars, r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteRune('_')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteRune('_')
	}

	runes := []rune(b.String())
	if len(runes) > constants.MaxTitleRunes {
		runes = runes[:constants.MaxTitleRunes]
	}
	return strings.Trim(string(runes), "_")
}

// MediaFileName is the name an acquired video is stored under. A title that
// sanitizes to nothing leaves just the id.
func MediaFileName(videoID, title string) string {
	name := SanitizeTitle(title)
	if name == "" {
		return videoID + constants.ExtMP4
	}
	return videoID + "-" + name + constants.ExtMP4
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, constants.DirPermissions)
}

// FindByPrefix returns the first regular file in dir that belongs to videoID,
// meaning its name is videoID followed by '-' or '.'. When ext is non-empty
// only files with that extension match. A missing dir is not an error.
func FindByPrefix(dir, videoID, ext string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, videoID+"-") && !strings.HasPrefix(name, videoID+".") {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		return filepath.Join(dir, name), true, nil
	}
	return "", false, nil
}

// DirStats counts the .mp4 files in dir and their total size.
func DirStats(dir string) (Stats, error) {
	var stats Stats
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), constants.ExtMP4) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return stats, err
		}
		stats.VideoCount++
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}
