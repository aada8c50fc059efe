package ytdlp

import (
	"context"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"
)

const progressInterval = 500 * time.Millisecond

// Request describes one yt-dlp invocation.
type Request struct {
	URL                string
	CookiesFromBrowser string
	// Print is a --print template; printed values arrive in Response.Stdout.
	Print        string
	SkipDownload bool
	NoPlaylist   bool
	FlatPlaylist bool
	// PlaylistEnd caps listed entries when positive.
	PlaylistEnd  int
	ExtractAudio bool
	AudioFormat  string
	Output       string
	Progress     ProgressFunc
}

// Response carries what a finished invocation printed.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Started is false when the binary could not be executed at all.
	Started bool
}

// Runner executes req with the yt-dlp binary.
type Runner func(ctx context.Context, binary string, req Request) (Response, error)

func libraryRunner(ctx context.Context, binary string, req Request) (Response, error) {
	res, err := buildCommand(binary, req).Run(ctx, req.URL)
	var resp Response
	if res != nil {
		resp = Response{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode, Started: res.ExitCode > 0 || err == nil}
	}
	return resp, err
}

func buildCommand(binary string, req Request) *goytdlp.Command {
	cmd := goytdlp.New().SetExecutable(binary)
	if req.CookiesFromBrowser != "" {
		cmd = cmd.CookiesFromBrowser(req.CookiesFromBrowser)
	}
	if req.SkipDownload {
		cmd = cmd.SkipDownload()
	}
	if req.NoPlaylist {
		cmd = cmd.NoPlaylist()
	}
	if req.FlatPlaylist {
		cmd = cmd.FlatPlaylist()
	}
	if req.PlaylistEnd > 0 {
		cmd = cmd.PlaylistEnd(req.PlaylistEnd)
	}
	if req.Print != "" {
		cmd = cmd.Print(req.Print)
	}
	if req.ExtractAudio {
		cmd = cmd.ExtractAudio().AudioFormat(req.AudioFormat)
	}
	if req.Output != "" {
		cmd = cmd.Output(req.Output)
	}
	if req.Progress != nil {
		progress := req.Progress
		cmd = cmd.ProgressFunc(progressInterval, func(update goytdlp.ProgressUpdate) {
			if percent, ok := progressPercent(update); ok {
				progress(percent)
			}
		})
	}
	return cmd
}

// progressPercent converts a byte-count update into percent complete.
func progressPercent(update goytdlp.ProgressUpdate) (float64, bool) {
	if update.TotalBytes <= 0 {
		return 0, false
	}
	percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	return min(percent, 100), true
}
