package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a short task identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewTask inserts a queued task for url.
func (s *Store) NewTask(ctx context.Context, url, title string) (*Task, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("task url is required")
	}
	timestamp := s.timestamp()
	id := NewID()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO tasks (
            id, url, title, status, created_at, updated_at, progress_stage, progress_percent
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		url,
		nullableString(strings.TrimSpace(title)),
		StatusQueued,
		timestamp,
		timestamp,
		nil,
		0.0,
	); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a task by identifier. A missing task returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Update persists every mutable field of task.
func (s *Store) Update(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = s.now().UTC()
	if err := s.execAffecting(
		ctx,
		task.ID,
		`UPDATE tasks
         SET title = ?, status = ?, audio_path = ?, transcript_path = ?, content = ?,
             formatted_count = ?, paragraph_count = ?, progress_stage = ?, progress_percent = ?,
             timings_json = ?, error_message = ?, updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullableString(task.Title),
		task.Status,
		nullableString(task.AudioPath),
		nullableString(task.TranscriptPath),
		nullableString(task.Content),
		task.FormattedCount,
		task.ParagraphCount,
		nullableString(task.ProgressStage),
		task.ProgressPercent,
		nullableString(task.TimingsJSON),
		nullableString(task.ErrorMessage),
		task.UpdatedAt.Format(timeLayout),
		nullableTime(task.LastHeartbeat),
		task.ID,
	); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// UpdateProgress records live formatting progress and the partial document.
func (s *Store) UpdateProgress(ctx context.Context, id string, formatted, total int, content string) error {
	percent := 0.0
	if total > 0 {
		percent = float64(formatted) / float64(total) * 100
	}
	if err := s.execAffecting(
		ctx,
		id,
		`UPDATE tasks
         SET formatted_count = ?, paragraph_count = ?, progress_percent = ?, content = ?, updated_at = ?
         WHERE id = ?`,
		formatted,
		total,
		percent,
		nullableString(content),
		s.timestamp(),
		id,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// List returns tasks filtered by status set, or all tasks when none is given.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at`, statusArgs(statuses)...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return scanTasks(rows)
}

// NextQueued returns the oldest queued task, or nil when the queue is idle.
func (s *Store) NextQueued(ctx context.Context) (*Task, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at LIMIT 1`,
		StatusQueued,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued task: %w", err)
	}
	return task, nil
}

// Remove deletes a task by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes finished tasks.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tasks WHERE status = ?`, StatusDone)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes failed tasks.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tasks WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every task.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
