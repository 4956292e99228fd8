package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cesargomez89/tubearchive/internal/constants"
	"github.com/cesargomez89/tubearchive/internal/logger"
	"github.com/cesargomez89/tubearchive/internal/storage"
)

// Outcome is the result of one acquisition attempt. Ordinary failures are
// reported through Reason rather than as errors.
type Outcome struct {
	Success bool
	Path    string
	Reason  string
}

// Acquirer fetches the media artifact of a video. Locate reports an artifact
// that is already in place so callers can skip the download.
type Acquirer interface {
	Acquire(ctx context.Context, videoID, title string) Outcome
	Locate(videoID string) (string, bool)
}

type MediaConfig struct {
	Dir       string
	YtDlpPath string
	Timeout   time.Duration
	ExtraArgs []string
}

// Downloader acquires videos by running yt-dlp.
type Downloader struct {
	cfg    MediaConfig
	logger *logger.Logger
}

func NewDownloader(cfg MediaConfig, log *logger.Logger) *Downloader {
	if cfg.YtDlpPath == "" {
		cfg.YtDlpPath = constants.DefaultYtDlpPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultDownloadTimeout
	}
	return &Downloader{
		cfg:    cfg,
		logger: log.WithComponent("downloader"),
	}
}

func (d *Downloader) Acquire(ctx context.Context, videoID, title string) Outcome {
	if err := storage.EnsureDir(d.cfg.Dir); err != nil {
		return Outcome{Reason: fmt.Sprintf("create media dir: %v", err)}
	}

	expected := filepath.Join(d.cfg.Dir, storage.MediaFileName(videoID, title))
	log := d.logger.WithVideo(videoID, title)
	log.Info("Starting download")

	cmdCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, d.cfg.YtDlpPath, d.args(videoID, title)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		reason := lastLine(stderr.String())
		switch {
		case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
			reason = fmt.Sprintf("timed out after %s", d.cfg.Timeout)
		case ctx.Err() != nil:
			reason = ctx.Err().Error()
		case reason == "":
			reason = err.Error()
		}
		log.Warn("Download failed", "reason", reason)
		return Outcome{Reason: reason}
	}

	path := lastLine(stdout.String())
	if path == "" || !fileExists(path) {
		path = expected
	}
	if !fileExists(path) {
		log.Warn("Download produced no file", "expected", expected)
		return Outcome{Reason: "yt-dlp exited cleanly but no output file was found"}
	}

	log.Info("Download completed", "path", path)
	return Outcome{Success: true, Path: path}
}

func (d *Downloader) args(videoID, title string) []string {
	base := strings.TrimSuffix(storage.MediaFileName(videoID, title), constants.ExtMP4)
	template := filepath.Join(d.cfg.Dir, base+".%(ext)s")
	args := []string{
		"-f", constants.YtDlpFormat,
		"--merge-output-format", constants.YtDlpMergeFormat,
		"-o", template,
		"--write-thumbnail",
		"--no-playlist",
		"--add-metadata",
		"--no-warnings",
		"--print", "after_move:filepath",
	}
	args = append(args, d.cfg.ExtraArgs...)
	return append(args, "https://www.youtube.com/watch?v="+videoID)
}

// Exists reports whether any artifact for videoID is in the media dir.
func (d *Downloader) Exists(videoID string) bool {
	_, ok, err := storage.FindByPrefix(d.cfg.Dir, videoID, "")
	if err != nil {
		d.logger.Warn("Media lookup failed", "video_id", videoID, "error", err)
	}
	return ok
}

// Locate returns the path of the video's .mp4 file.
func (d *Downloader) Locate(videoID string) (string, bool) {
	path, ok, err := storage.FindByPrefix(d.cfg.Dir, videoID, constants.ExtMP4)
	if err != nil {
		d.logger.Warn("Media lookup failed", "video_id", videoID, "error", err)
	}
	return path, ok
}

func (d *Downloader) Stats() (storage.Stats, error) {
	return storage.DirStats(d.cfg.Dir)
}

func lastLine(s string) string {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	return last
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
