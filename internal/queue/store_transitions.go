package queue

import (
	"context"
	"fmt"
	"time"
)

// ResetStuckProcessing returns in-flight tasks to the queue. Downloaded audio
// is kept on the task so the next run reuses it.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks
         SET status = ?, progress_stage = 'Reset from stuck processing',
             progress_percent = 0, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?)`,
		StatusQueued,
		s.timestamp(),
		StatusDownloading,
		StatusTranscribing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck tasks: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight task.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := s.timestamp()
	if err := s.execAffecting(
		ctx,
		id,
		`UPDATE tasks SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing requeues in-flight tasks whose heartbeat is older than cutoff.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks
        SET status = ?, progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusQueued,
		s.timestamp(),
		StatusDownloading,
		StatusTranscribing,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale tasks: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed tasks back to queued. With no ids every failed
// task is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	query := `UPDATE tasks
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            formatted_count = 0, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusQueued, s.timestamp(), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed tasks: %w", err)
	}
	return res.RowsAffected()
}
