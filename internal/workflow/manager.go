package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"yt2text/internal/config"
	"yt2text/internal/logging"
	"yt2text/internal/queue"
)

// Manager drains the task queue one task at a time. Transcription loads a
// whole speech model, so tasks never overlap.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	processor    *Processor
	pollInterval time.Duration
	retryDelay   time.Duration
	// contentInterval bounds live document writes while paragraph counts are
	// unchanged.
	contentInterval time.Duration

	heartbeat *HeartbeatMonitor
	wake      chan struct{}

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastTask *queue.Task
	current  string
}

// NewManager constructs a workflow manager. Processor options replace the
// default collaborators.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...ProcessorOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	managerLogger := logging.NewComponentLogger(logger, "workflow-manager")
	return &Manager{
		cfg:             cfg,
		store:           store,
		logger:          managerLogger,
		processor:       NewProcessor(cfg, logger, opts...),
		pollInterval:    time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryDelay:      time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		contentInterval: time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			managerLogger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		wake: make(chan struct{}, 1),
	}
}

// Wake interrupts the idle poll so newly queued work starts immediately.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
