package ytdlp

import (
	"context"
	"fmt"
	"strings"

	"yt2text/internal/services"
)

// FailureKind classifies a yt-dlp failure from its stderr.
type FailureKind string

const (
	FailureMembersOnly FailureKind = "members_only"
	FailurePrivate     FailureKind = "private"
	FailureUnavailable FailureKind = "unavailable"
	FailureGeneric     FailureKind = "generic"
)

// DownloadError is returned for any failed yt-dlp invocation.
type DownloadError struct {
	Kind FailureKind
	Op   string
	URL  string
	// Detail is the last meaningful stderr line.
	Detail string
	Err    error
}

func (e *DownloadError) Error() string {
	msg := fmt.Sprintf("yt-dlp %s %s: %s", e.Op, e.URL, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DownloadError) Unwrap() error { return e.Err }

// FriendlyMessage is the text persisted on failed queue tasks.
func (e *DownloadError) FriendlyMessage() string {
	switch e.Kind {
	case FailureMembersOnly:
		return "this video is for channel members only; set download.cookies_from_browser to a logged-in browser"
	case FailurePrivate:
		return "this video is private"
	case FailureUnavailable:
		return "this video is unavailable or has been removed"
	default:
		if e.Detail != "" {
			return "download failed: " + e.Detail
		}
		return "download failed"
	}
}

func classify(ctx context.Context, op, url string, resp Response, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	marker := services.ErrExternalTool
	if !resp.Started {
		marker = services.ErrConfiguration
	}
	detail := lastErrorLine(resp.Stderr)
	if detail == "" && !resp.Started {
		detail = err.Error()
	}
	return &DownloadError{
		Kind:   failureKind(resp.Stderr),
		Op:     op,
		URL:    url,
		Detail: detail,
		Err:    fmt.Errorf("%w: %w", marker, err),
	}
}

func failureKind(stderr string) FailureKind {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "members-only"), strings.Contains(lower, "members only"), strings.Contains(lower, "join this channel"):
		return FailureMembersOnly
	case strings.Contains(lower, "private video"):
		return FailurePrivate
	case strings.Contains(lower, "video unavailable"), strings.Contains(lower, "is not available"), strings.Contains(lower, "has been removed"):
		return FailureUnavailable
	default:
		return FailureGeneric
	}
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
