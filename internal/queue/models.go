package queue

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusDownloading  Status = "downloading"
	StatusTranscribing Status = "transcribing"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// ErrTaskNotFound is returned when a task id does not exist.
var ErrTaskNotFound = errors.New("task not found")

var allStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusTranscribing,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusTranscribing: {},
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalTasks       int
	Error            string
}

// HealthSummary describes aggregated task counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Failed     int
	Done       int
}

// Task is one submitted video persisted in SQLite.
type Task struct {
	ID              string
	URL             string
	Title           string
	Status          Status
	AudioPath       string
	TranscriptPath  string
	Content         string
	FormattedCount  int
	ParagraphCount  int
	ProgressStage   string
	ProgressPercent float64
	TimingsJSON     string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (t Task) IsProcessing() bool {
	return IsProcessingStatus(t.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// SetProgress updates the stage and percentage together.
func (t *Task) SetProgress(stage string, percent float64) {
	t.ProgressStage = stage
	t.ProgressPercent = percent
}

// SetFailed marks the task as failed with the given error message.
func (t *Task) SetFailed(message string) {
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.ProgressPercent = 0
	t.LastHeartbeat = nil
	t.ProgressStage = "Failed"
}

// Timings decodes the recorded stage durations in seconds.
func (t Task) Timings() map[string]float64 {
	if strings.TrimSpace(t.TimingsJSON) == "" {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal([]byte(t.TimingsJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetTimings encodes stage durations in seconds into TimingsJSON.
func (t *Task) SetTimings(seconds map[string]float64) {
	if len(seconds) == 0 {
		t.TimingsJSON = ""
		return
	}
	data, err := json.Marshal(seconds)
	if err != nil {
		return
	}
	t.TimingsJSON = string(data)
}
