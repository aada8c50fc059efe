package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"yt2text/internal/logging"
	"yt2text/internal/pipeline"
	"yt2text/internal/queue"
	"yt2text/internal/services"
	"yt2text/internal/services/ytdlp"
)

func (m *Manager) processTask(ctx context.Context, task *queue.Task) error {
	taskCtx := services.WithTaskID(ctx, task.ID)
	taskCtx = services.WithRequestID(taskCtx, uuid.NewString())
	logger := logging.WithContext(taskCtx, m.logger)

	m.setCurrent(task.ID)
	defer m.setCurrent("")

	if err := m.transition(taskCtx, task, queue.StatusDownloading); err != nil {
		logging.ErrorWithContext(logger, "failed to transition task to processing", "queue_update_failed", logging.Error(err))
		m.setLastError(err)
		return err
	}

	started := time.Now()
	logger.Info("task started",
		logging.String(logging.FieldEventType, "task_start"),
		logging.String("url", task.URL),
		logging.String("title", strings.TrimSpace(task.Title)),
	)

	hbCtx, hbCancel := context.WithCancel(taskCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, task.ID)

	outcome, err := m.processor.Process(taskCtx, Job{URL: task.URL, Title: task.Title}, m.taskHooks(taskCtx, logger, task))
	hbCancel()
	hbWG.Wait()

	if err != nil {
		if errors.Is(err, context.Canceled) || taskCtx.Err() != nil {
			logger.Debug("task interrupted by shutdown")
			return context.Canceled
		}
		m.handleTaskFailure(taskCtx, logger, task, err)
		return err
	}

	task.Status = queue.StatusDone
	task.Title = outcome.Title
	task.AudioPath = outcome.AudioPath
	task.TranscriptPath = outcome.TranscriptPath
	if outcome.Result != nil {
		task.Content = outcome.Result.Document
		task.ParagraphCount = len(outcome.Result.Paragraphs)
		task.FormattedCount = task.ParagraphCount - len(outcome.Result.FailedParagraphs)
	}
	task.SetProgress("Done", 100)
	task.ErrorMessage = ""
	task.LastHeartbeat = nil
	task.SetTimings(outcome.Timings())
	if err := m.store.Update(taskCtx, task); err != nil {
		wrapped := fmt.Errorf("persist task result: %w", err)
		logging.ErrorWithContext(logger, "failed to persist task result", "queue_update_failed", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	logger.Info("task completed",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.String("transcript", task.TranscriptPath),
		logging.Int("paragraphs", task.ParagraphCount),
		logging.Int("formatted", task.FormattedCount),
		logging.Duration("task_duration", time.Since(started)),
	)
	m.setLastTask(task)
	return nil
}

func (m *Manager) taskHooks(ctx context.Context, logger *slog.Logger, task *queue.Task) Hooks {
	downloadSampler := logging.NewProgressSampler(10)
	formatSampler := logging.NewProgressSampler(10)
	saver := &documentSaver{interval: m.contentInterval}
	return Hooks{
		OnTitle: func(title string) {
			if title == task.Title {
				return
			}
			task.Title = title
			m.persist(ctx, logger, task)
		},
		OnStage: func(status queue.Status) {
			if status == task.Status {
				return
			}
			if err := m.transition(ctx, task, status); err != nil {
				logging.WarnWithContext(logger, "failed to persist stage change", "queue_update_failed",
					logging.Error(err),
					logging.String("status", string(status)),
					logging.String(logging.FieldImpact, "queue shows a stale status until the task finishes"),
				)
			}
		},
		OnAudio: func(audio ytdlp.Audio) {
			task.AudioPath = audio.Path
			m.persist(ctx, logger, task)
		},
		OnDownload: func(percent float64) {
			if !downloadSampler.ShouldLog(percent, "download") {
				return
			}
			logger.Info("download progress",
				logging.String(logging.FieldEventType, "download_progress"),
				logging.Float64("percent", percent),
			)
			task.SetProgress("Downloading", percent)
			m.persist(ctx, logger, task)
		},
		Progress: func(document string, finalized, total int) {
			task.Content = document
			task.FormattedCount = finalized
			task.ParagraphCount = total
			if formatSampler.ShouldLogCount(finalized, total, "formatting") {
				logger.Info("formatting progress",
					logging.String(logging.FieldEventType, "formatting_progress"),
					logging.Int("formatted", finalized),
					logging.Int("total", total),
				)
			}
			if !saver.due(time.Now(), finalized, total) {
				return
			}
			if err := m.store.UpdateProgress(ctx, task.ID, finalized, total, document); err != nil && ctx.Err() == nil {
				logging.WarnWithContext(logger, "failed to persist formatting progress", "queue_update_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "live progress is stale"),
				)
			}
		},
		OnState: func(state pipeline.State) {
			task.ProgressStage = stageLabel(state)
			logger.Debug("pipeline state", logging.String("state", state.String()))
			m.persist(ctx, logger, task)
		},
	}
}

// documentSaver decides when the live document is written to the queue. Any
// change in paragraph counts saves immediately; text growing inside the
// current paragraph saves at most once per interval.
type documentSaver struct {
	interval  time.Duration
	lastSave  time.Time
	finalized int
	total     int
}

func (d *documentSaver) due(now time.Time, finalized, total int) bool {
	changed := finalized != d.finalized || total != d.total
	if !changed && !d.lastSave.IsZero() && now.Sub(d.lastSave) < d.interval {
		return false
	}
	d.lastSave = now
	d.finalized = finalized
	d.total = total
	return true
}

func (m *Manager) transition(ctx context.Context, task *queue.Task, status queue.Status) error {
	now := time.Now().UTC()
	task.Status = status
	task.SetProgress(statusLabel(status), 0)
	task.ErrorMessage = ""
	task.LastHeartbeat = &now
	if err := m.store.Update(ctx, task); err != nil {
		return fmt.Errorf("persist %s transition: %w", status, err)
	}
	m.setLastTask(task)
	return nil
}

func (m *Manager) persist(ctx context.Context, logger *slog.Logger, task *queue.Task) {
	now := time.Now().UTC()
	task.LastHeartbeat = &now
	if err := m.store.Update(ctx, task); err != nil && ctx.Err() == nil {
		logging.WarnWithContext(logger, "failed to persist task progress", "queue_update_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "queue shows stale progress"),
		)
	}
}

func statusLabel(status queue.Status) string {
	switch status {
	case queue.StatusDownloading:
		return "Downloading"
	case queue.StatusTranscribing:
		return "Transcribing"
	case queue.StatusDone:
		return "Done"
	case queue.StatusFailed:
		return "Failed"
	default:
		return "Queued"
	}
}

func stageLabel(state pipeline.State) string {
	switch state {
	case pipeline.StateSegmenting:
		return "Transcribing"
	case pipeline.StateAwaitingFormatting:
		return "Formatting"
	case pipeline.StateRetrying:
		return "Retrying failed paragraphs"
	case pipeline.StateStructuring:
		return "Adding chapters"
	case pipeline.StateDone:
		return "Done"
	case pipeline.StateFailed:
		return "Failed"
	default:
		return state.String()
	}
}
