package workflow

import (
	"context"
	"errors"
	"time"

	"yt2text/internal/logging"
)

// Start begins background processing. Tasks left in flight by a previous run
// are returned to the queue first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if reset > 0 {
		m.logger.Info("requeued interrupted tasks",
			logging.String(logging.FieldEventType, "queue_reset"),
			logging.Int64("count", reset),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.loop(runCtx)
	return nil
}

// Stop terminates background processing and waits for the current task to
// observe cancellation.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleTasks(ctx); err != nil {
			logging.WarnWithContext(m.logger, "reclaim stale processing failed; stuck tasks may remain", "heartbeat_reclaim_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "interrupted tasks stay in a processing state"),
			)
		}

		task, err := m.store.NextQueued(ctx)
		if err != nil {
			m.handleNextTaskError(ctx, err)
			continue
		}
		if task == nil {
			m.waitForTaskOrShutdown(ctx)
			continue
		}

		if err := m.processTask(ctx, task); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
}

func (m *Manager) handleNextTaskError(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	m.setLastError(err)
	logging.ErrorWithContext(m.logger, "failed to fetch next queued task", "queue_fetch_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
		logging.String(logging.FieldImpact, "queued tasks are not being processed"),
	)
	m.sleep(ctx, m.retryDelay)
}

func (m *Manager) waitForTaskOrShutdown(ctx context.Context) {
	m.sleep(ctx, m.pollInterval)
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-timer.C:
	}
}
