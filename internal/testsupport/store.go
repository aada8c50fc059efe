package testsupport

import (
	"context"
	"testing"

	"yt2text/internal/config"
	"yt2text/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTask enqueues a task for tests using the provided store.
func NewTask(t testing.TB, store *queue.Store, url, title string) *queue.Task {
	t.Helper()

	task, err := store.NewTask(context.Background(), url, title)
	if err != nil {
		t.Fatalf("store.NewTask: %v", err)
	}
	return task
}
