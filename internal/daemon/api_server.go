package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"yt2text/internal/api"
	"yt2text/internal/config"
	"yt2text/internal/logging"
	"yt2text/internal/queue"
	"yt2text/internal/textutil"
	"yt2text/internal/workflow"
)

// maxRequestBody bounds submission payloads.
const maxRequestBody = 1 << 20

type apiServer struct {
	bind     string
	token    string
	logger   *slog.Logger
	queueSvc *api.QueueService
	status   func(context.Context) workflow.StatusSummary

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:     bind,
		token:    cfg.Paths.APIToken,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		queueSvc: api.NewQueueService(d.store, d.workflow.Wake),
		status:   d.workflow.Status,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(s.token, h)
	}
	mux.Handle("POST /api/process", protected(s.handleProcess))
	mux.Handle("POST /api/batch", protected(s.handleBatch))
	mux.Handle("GET /api/tasks", protected(s.handleTasks))
	mux.Handle("GET /api/tasks/{id}", protected(s.handleTask))
	mux.Handle("GET /api/tasks/{id}/download/audio", protected(s.handleAudio))
	mux.Handle("GET /api/tasks/{id}/download/transcript", protected(s.handleTranscript))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return corsMiddleware(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.queueSvc.Submit(r.Context(), req)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProcessResponse{TaskID: id})
}

func (s *apiServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	ids, err := s.queueSvc.SubmitBatch(r.Context(), req)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BatchResponse{TaskIDs: ids})
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := queue.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}
	tasks, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: api.SortTasksNewestFirst(tasks)})
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.queueSvc.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *apiServer) handleAudio(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if task.AudioPath == "" {
		s.writeError(w, http.StatusNotFound, "audio file not available")
		return
	}
	file, err := os.Open(task.AudioPath)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "audio file not available")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "audio file not available")
		return
	}
	w.Header().Set("Content-Disposition", attachment(filepath.Base(task.AudioPath)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (s *apiServer) handleTranscript(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookup(w, r)
	if !ok {
		return
	}
	content := task.Content
	if task.Status == queue.StatusDone && task.TranscriptPath != "" {
		if data, err := os.ReadFile(task.TranscriptPath); err == nil {
			content = string(data)
		}
	}
	if strings.TrimSpace(content) == "" {
		s.writeError(w, http.StatusNotFound, "transcript not available")
		return
	}
	title := strings.TrimSpace(task.Title)
	if title == "" {
		title = task.ID
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(textutil.SanitizeFileName(title)+".md"))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ok"}
	if s.status != nil {
		resp.Workflow = api.FromStatusSummary(s.status(r.Context()))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) lookup(w http.ResponseWriter, r *http.Request) (*queue.Task, bool) {
	task, err := s.queueSvc.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if task == nil {
		s.writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *apiServer) writeSubmitError(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrInvalidRequest) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
