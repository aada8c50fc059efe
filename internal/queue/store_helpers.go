package queue

import (
	"database/sql"
	"errors"
	"time"
)

const taskColumns = "id, url, title, status, audio_path, transcript_path, content, formatted_count, paragraph_count, progress_stage, progress_percent, timings_json, error_message, created_at, updated_at, last_heartbeat"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id               string
		url              string
		title            sql.NullString
		statusStr        string
		audioPath        sql.NullString
		transcriptPath   sql.NullString
		content          sql.NullString
		formattedCount   sql.NullInt64
		paragraphCount   sql.NullInt64
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		timings          sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&url,
		&title,
		&statusStr,
		&audioPath,
		&transcriptPath,
		&content,
		&formattedCount,
		&paragraphCount,
		&progressStage,
		&progressPercent,
		&timings,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:              id,
		URL:             url,
		Title:           title.String,
		Status:          Status(statusStr),
		AudioPath:       audioPath.String,
		TranscriptPath:  transcriptPath.String,
		Content:         content.String,
		FormattedCount:  int(formattedCount.Int64),
		ParagraphCount:  int(paragraphCount.Int64),
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		TimingsJSON:     timings.String,
		ErrorMessage:    errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			task.LastHeartbeat = &heartbeat
		}
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	defer rows.Close()
	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
