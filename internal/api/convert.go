package api

import (
	"fmt"
	"strings"

	"yt2text/internal/fileutil"
	"yt2text/internal/queue"
	"yt2text/internal/workflow"
)

// FromTask converts a queue record to its API representation.
func FromTask(task *queue.Task) Task {
	if task == nil {
		return Task{}
	}

	title := strings.TrimSpace(task.Title)
	if title == "" {
		title = task.URL
	}
	dto := Task{
		ID:     task.ID,
		URL:    task.URL,
		Title:  title,
		Status: string(task.Status),
		Progress: TaskProgress{
			Stage:     task.ProgressStage,
			Percent:   task.ProgressPercent,
			Formatted: task.FormattedCount,
			Total:     task.ParagraphCount,
		},
		Content:  task.Content,
		Result:   task.TranscriptPath,
		Timing:   task.Timings(),
		Error:    task.ErrorMessage,
		HasAudio: task.AudioPath != "" && fileutil.NonEmptyFile(task.AudioPath),
	}
	if task.IsProcessing() && task.ParagraphCount > 0 {
		dto.FormattingProgress = fmt.Sprintf("%d/%d", task.FormattedCount, task.ParagraphCount)
	}
	if task.Status != queue.StatusDone {
		dto.Result = ""
	}
	if !task.CreatedAt.IsZero() {
		dto.CreatedAt = task.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !task.UpdatedAt.IsZero() {
		dto.UpdatedAt = task.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromTasks converts a slice of queue records into API DTOs.
func FromTasks(tasks []*queue.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, FromTask(task))
	}
	return out
}

// MergeQueueStats converts status keyed counts into string keys with every
// known status present.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = 0
	}
	for status, count := range stats {
		out[string(status)] += count
	}
	return out
}

// FromStatusSummary converts workflow diagnostics to the API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:     summary.Running,
		CurrentTask: summary.CurrentTask,
		QueueStats:  MergeQueueStats(summary.QueueStats),
		LastError:   summary.LastError,
	}
	if summary.LastTask != nil {
		task := FromTask(summary.LastTask)
		task.Content = ""
		status.LastTask = &task
	}
	return status
}
