package ytdlp

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"yt2text/internal/fileutil"
	"yt2text/internal/logging"
	"yt2text/internal/services"
	"yt2text/internal/textutil"
)

// DefaultBinary is the executable looked up on PATH when none is configured.
const DefaultBinary = "yt-dlp"

// Config captures downloader settings.
type Config struct {
	Binary             string
	AudioDir           string
	AudioFormat        string
	CookiesFromBrowser string
}

// ProgressFunc receives download completion in percent.
type ProgressFunc func(percent float64)

// Audio is a downloaded audio file.
type Audio struct {
	Path  string
	Title string
	// Reused is set when an earlier download was found and kept.
	Reused bool
}

// Downloader drives yt-dlp for titles, audio and playlist listings.
type Downloader struct {
	cfg    Config
	run    Runner
	logger *slog.Logger
}

// New constructs a Downloader.
func New(cfg Config, logger *slog.Logger) *Downloader {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.AudioFormat) == "" {
		cfg.AudioFormat = "mp3"
	}
	return &Downloader{cfg: cfg, run: libraryRunner, logger: logging.NewComponentLogger(logger, "ytdlp")}
}

// WithRunner swaps the invocation backend (for testing).
func (d *Downloader) WithRunner(run Runner) {
	if run != nil {
		d.run = run
	}
}

// Title fetches the video title without downloading anything.
func (d *Downloader) Title(ctx context.Context, url string) (string, error) {
	req := d.request(url)
	req.SkipDownload = true
	req.NoPlaylist = true
	req.Print = "title"
	resp, err := d.run(ctx, d.cfg.Binary, req)
	if err != nil {
		return "", classify(ctx, "fetch title", url, resp, err)
	}
	lines := printedLines(resp.Stdout)
	if len(lines) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "download", "fetch title", "yt-dlp printed no title", nil)
	}
	return lines[0], nil
}

// AudioPath is where DownloadAudio stores the audio for title.
func (d *Downloader) AudioPath(title string) string {
	return filepath.Join(d.cfg.AudioDir, textutil.SanitizeFileName(title)+"."+d.cfg.AudioFormat)
}

// DownloadAudio extracts the audio track of url into the audio directory,
// named after title. An existing non-empty file is reused.
func (d *Downloader) DownloadAudio(ctx context.Context, url, title string, progress ProgressFunc) (Audio, error) {
	target := d.AudioPath(title)
	audio := Audio{Path: target, Title: title}
	if fileutil.NonEmptyFile(target) {
		d.logger.Info("audio already downloaded",
			logging.String(logging.FieldEventType, "download_reused"),
			logging.String("path", target),
		)
		audio.Reused = true
		return audio, nil
	}

	req := d.request(url)
	req.NoPlaylist = true
	req.ExtractAudio = true
	req.AudioFormat = d.cfg.AudioFormat
	req.Output = strings.TrimSuffix(target, filepath.Ext(target)) + ".%(ext)s"
	req.Progress = progress
	resp, err := d.run(ctx, d.cfg.Binary, req)
	if err != nil {
		return audio, classify(ctx, "download audio", url, resp, err)
	}
	if !fileutil.NonEmptyFile(target) {
		return audio, services.Wrap(services.ErrExternalTool, "download", "download audio", "yt-dlp finished without producing "+target, nil)
	}
	return audio, nil
}

// ListEntries expands a channel or playlist page into video URLs, newest
// first as yt-dlp lists them. A positive limit caps the count.
func (d *Downloader) ListEntries(ctx context.Context, pageURL string, limit int) ([]string, error) {
	req := d.request(pageURL)
	req.FlatPlaylist = true
	req.Print = "url"
	req.PlaylistEnd = max(limit, 0)
	resp, err := d.run(ctx, d.cfg.Binary, req)
	if err != nil {
		return nil, classify(ctx, "list entries", pageURL, resp, err)
	}
	var urls []string
	for _, line := range printedLines(resp.Stdout) {
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}

func (d *Downloader) request(url string) Request {
	return Request{URL: url, CookiesFromBrowser: strings.TrimSpace(d.cfg.CookiesFromBrowser)}
}

func printedLines(stdout string) []string {
	var out []string
	for _, line := range strings.Split(stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// IsSingleVideo reports whether url names one video rather than a channel or
// playlist.
func IsSingleVideo(url string) bool {
	if strings.Contains(url, "youtu.be/") {
		return true
	}
	return strings.Contains(url, "/watch?v=") && !strings.Contains(url, "list=")
}
