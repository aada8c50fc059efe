package workflow

import (
	"context"
	"errors"
	"log/slog"

	"yt2text/internal/logging"
	"yt2text/internal/queue"
	"yt2text/internal/services"
	"yt2text/internal/textutil"
)

// maxErrorMessageRunes caps the failure text stored on a task.
const maxErrorMessageRunes = 500

func (m *Manager) handleTaskFailure(ctx context.Context, logger *slog.Logger, task *queue.Task, taskErr error) {
	message := textutil.Truncate(services.FailureMessage(taskErr), maxErrorMessageRunes)
	if message == "" {
		message = "workflow failed without error detail"
	}
	stage := string(task.Status)
	task.SetFailed(message)

	logging.ErrorWithContext(logger, "task failed", "stage_failure",
		logging.String(logging.FieldStage, stage),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorHint, failureHint(taskErr)),
		logging.Error(taskErr),
	)

	if err := m.store.Update(ctx, task); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not record task failure")
		} else {
			logging.ErrorWithContext(logger, "failed to persist task failure", "queue_update_failed", logging.Error(err))
		}
	}

	m.setLastError(taskErr)
	m.setLastTask(task)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the configuration and that the external tools are installed"
	case errors.Is(err, services.ErrExternalTool):
		return "inspect the tool stderr in the error message"
	case errors.Is(err, services.ErrValidation):
		return "check the submitted URL and the transcription output"
	default:
		return "retry with 'yt2text queue retry' once the cause is fixed"
	}
}
