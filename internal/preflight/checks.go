package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"yt2text/internal/config"
	"yt2text/internal/deps"
	"yt2text/internal/services/llm"
)

// minFreeBytes is the free space below which a directory check warns.
const minFreeBytes uint64 = 1 << 30

// healthChecker is satisfied by the LLM client.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg llm.Config) Result {
	const name = "LLM"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	return checkLLMWith(ctx, name, llm.NewClient(cfg))
}

func checkLLMWith(ctx context.Context, name string, client healthChecker) Result {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists, is readable and
// writable, and has at least 1 GiB free. Low space passes with a warning.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}

	free, err := freeBytes(path)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok, free space unknown)", path)}
	}
	if free < minFreeBytes {
		return Result{
			Name:    name,
			Passed:  true,
			Warning: true,
			Detail:  fmt.Sprintf("%s (low disk space: %s free)", path, formatBytes(free)),
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok, %s free)", path, formatBytes(free))}
}

func freeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the daemon and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.DownloadBinary(),
			Description: "Required for audio download",
		},
		{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX-driven transcription",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required when transcription.extract_audio is enabled",
			Optional:    !cfg.Transcription.ExtractAudio,
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
