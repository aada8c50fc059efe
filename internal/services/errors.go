package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RemoteCallKind classifies a failed remote call.
type RemoteCallKind string

const (
	// RemoteNetwork covers transport failures, rate limiting, and upstream 5xx.
	RemoteNetwork RemoteCallKind = "network"
	// RemoteTimeout covers deadline expiry on the client or the server side.
	RemoteTimeout RemoteCallKind = "timeout"
	// RemoteOther covers rejected requests and unusable responses.
	RemoteOther RemoteCallKind = "other"
)

// RemoteCallError is returned by remote collaborators (text formatters, health
// checks). Kind is assigned by the collaborator from the transport outcome, so
// callers never inspect message text.
type RemoteCallError struct {
	Kind       RemoteCallKind
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *RemoteCallError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.kind()))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// ErrorKind reports the classification for status mapping.
func (e *RemoteCallError) ErrorKind() string {
	return "remote_" + string(e.kind())
}

// Retryable reports whether another attempt may succeed. Network and timeout
// failures always qualify; other failures qualify unless the server rejected
// the request outright with a 4xx status.
func (e *RemoteCallError) Retryable() bool {
	switch e.kind() {
	case RemoteNetwork, RemoteTimeout:
		return true
	}
	return e.StatusCode < http.StatusBadRequest || e.StatusCode >= http.StatusInternalServerError
}

func (e *RemoteCallError) kind() RemoteCallKind {
	if e == nil || e.Kind == "" {
		return RemoteOther
	}
	return e.Kind
}

// RemoteKind extracts the classification of err. Errors that are not a
// RemoteCallError are reported as RemoteOther.
func RemoteKind(err error) RemoteCallKind {
	var remote *RemoteCallError
	if errors.As(err, &remote) {
		return remote.kind()
	}
	return RemoteOther
}

// FailureMessage flattens err into a single line suitable for persisting on a
// queue task and showing to users.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var friendly interface{ FriendlyMessage() string }
	if errors.As(err, &friendly) {
		if msg := strings.TrimSpace(friendly.FriendlyMessage()); msg != "" {
			return msg
		}
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
