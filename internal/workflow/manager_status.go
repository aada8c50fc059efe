package workflow

import (
	"context"

	"yt2text/internal/logging"
	"yt2text/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	CurrentTask string
	LastError   string
	LastTask    *queue.Task
	QueueStats  map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	current := m.current
	lastErr := m.lastErr
	lastTask := m.lastTask
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		logging.WarnWithContext(m.logger, "failed to read queue stats", "queue_stats_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status omits queue counts"),
		)
	}

	summary := StatusSummary{Running: running, CurrentTask: current, QueueStats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastTask != nil {
		copy := *lastTask
		summary.LastTask = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastTask(task *queue.Task) {
	m.mu.Lock()
	if task != nil {
		copy := *task
		m.lastTask = &copy
	} else {
		m.lastTask = nil
	}
	m.mu.Unlock()
}

func (m *Manager) setCurrent(id string) {
	m.mu.Lock()
	m.current = id
	m.mu.Unlock()
}
