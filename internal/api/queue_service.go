package api

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"yt2text/internal/queue"
)

// QueueStore abstracts the queue persistence the API needs.
type QueueStore interface {
	NewTask(ctx context.Context, url, title string) (*queue.Task, error)
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Task, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id string) (*queue.Task, error)
}

// ErrInvalidRequest marks submissions rejected before reaching the queue.
var ErrInvalidRequest = errors.New("invalid request")

// QueueService exposes queue operations returning API DTOs.
type QueueService struct {
	store QueueStore
	// onSubmit runs after tasks are enqueued.
	onSubmit func()
}

// NewQueueService constructs a QueueService around the provided store.
// onSubmit may be nil.
func NewQueueService(store QueueStore, onSubmit func()) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store, onSubmit: onSubmit}
}

// Submit enqueues one video.
func (s *QueueService) Submit(ctx context.Context, req ProcessRequest) (string, error) {
	ids, err := s.SubmitBatch(ctx, BatchRequest{Videos: []ProcessRequest{req}})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// SubmitBatch enqueues every video, rejecting the whole batch when any URL is
// missing.
func (s *QueueService) SubmitBatch(ctx context.Context, req BatchRequest) ([]string, error) {
	if len(req.Videos) == 0 {
		return nil, errors.Join(ErrInvalidRequest, errors.New("no videos submitted"))
	}
	for i, video := range req.Videos {
		if strings.TrimSpace(video.URL) == "" {
			return nil, errors.Join(ErrInvalidRequest, errors.New("video "+strconv.Itoa(i+1)+" has no url"))
		}
	}
	ids := make([]string, 0, len(req.Videos))
	for _, video := range req.Videos {
		task, err := s.store.NewTask(ctx, video.URL, video.Title)
		if err != nil {
			return ids, err
		}
		ids = append(ids, task.ID)
	}
	if s.onSubmit != nil {
		s.onSubmit()
	}
	return ids, nil
}

// List returns tasks filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]Task, error) {
	tasks, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromTasks(tasks), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single task. A missing task returns nil, nil.
func (s *QueueService) Describe(ctx context.Context, id string) (*Task, error) {
	task, err := s.store.GetByID(ctx, id)
	if err != nil || task == nil {
		return nil, err
	}
	dto := FromTask(task)
	return &dto, nil
}

// Lookup returns the stored task, including server-side paths.
func (s *QueueService) Lookup(ctx context.Context, id string) (*queue.Task, error) {
	return s.store.GetByID(ctx, id)
}
