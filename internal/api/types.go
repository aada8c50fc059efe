package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a queue task in a transport-friendly format. The audio path
// stays server side; clients fetch the file through the download route.
type Task struct {
	ID                 string             `json:"id"`
	URL                string             `json:"url"`
	Title              string             `json:"title"`
	Status             string             `json:"status"`
	Progress           TaskProgress       `json:"progress"`
	FormattingProgress string             `json:"formatting_progress,omitempty"`
	Content            string             `json:"content,omitempty"`
	Result             string             `json:"result,omitempty"`
	Timing             map[string]float64 `json:"timing,omitempty"`
	Error              string             `json:"error,omitempty"`
	HasAudio           bool               `json:"has_audio"`
	CreatedAt          string             `json:"created_at,omitempty"`
	UpdatedAt          string             `json:"updated_at,omitempty"`
}

// TaskProgress captures stage progress information for a task.
type TaskProgress struct {
	Stage     string  `json:"stage"`
	Percent   float64 `json:"percent"`
	Formatted int     `json:"formatted"`
	Total     int     `json:"total"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	CurrentTask string         `json:"current_task,omitempty"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error,omitempty"`
	LastTask    *Task          `json:"last_task,omitempty"`
}

// ProcessRequest submits one video.
type ProcessRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ProcessResponse returns the id of a submitted task.
type ProcessResponse struct {
	TaskID string `json:"task_id"`
}

// BatchRequest submits several videos at once.
type BatchRequest struct {
	Videos []ProcessRequest `json:"videos"`
}

// BatchResponse returns the ids of submitted tasks in request order.
type BatchResponse struct {
	TaskIDs []string `json:"task_ids"`
}

// TaskListResponse wraps a collection of tasks for API responses.
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}

// HealthResponse is returned by the health route.
type HealthResponse struct {
	Status   string         `json:"status"`
	Workflow WorkflowStatus `json:"workflow"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
