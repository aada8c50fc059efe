package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"yt2text/internal/logging"
	"yt2text/internal/queue"
)

// HeartbeatMonitor manages task heartbeats and stale task reclamation.
type HeartbeatMonitor struct {
	store             *queue.Store
	logger            *slog.Logger
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:             store,
		logger:            logger,
		heartbeatInterval: interval,
		heartbeatTimeout:  timeout,
	}
}

// ReclaimStaleTasks requeues tasks that have stopped sending heartbeats.
func (h *HeartbeatMonitor) ReclaimStaleTasks(ctx context.Context) error {
	if h.heartbeatTimeout <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-h.heartbeatTimeout)
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		h.logger.Info("reclaimed stale tasks",
			logging.String(logging.FieldEventType, "heartbeat_reclaim"),
			logging.Int64("count", reclaimed),
		)
	}
	return nil
}

// StartLoop runs a heartbeat updater for a specific task until context cancellation.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, taskID string) {
	defer wg.Done()
	if h.heartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger.With(logging.String(logging.FieldComponent, "workflow-heartbeat")))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, taskID); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("daemon shutting down, heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed",
						logging.Error(err),
						logging.String(logging.FieldEventType, "heartbeat_failed"),
						logging.String(logging.FieldErrorHint, "check queue database access"),
						logging.String(logging.FieldImpact, "the task may be reclaimed while still running"),
					)
				}
			}
		}
	}
}
