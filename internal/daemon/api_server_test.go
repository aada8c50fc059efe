package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yt2text/internal/api"
	"yt2text/internal/logging"
	"yt2text/internal/queue"
	"yt2text/internal/testsupport"
	"yt2text/internal/workflow"
)

func newTestServer(t *testing.T, token string) (*apiServer, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := &apiServer{
		token:    token,
		logger:   logging.NewNop(),
		queueSvc: api.NewQueueService(store, nil),
		status: func(context.Context) workflow.StatusSummary {
			return workflow.StatusSummary{Running: true}
		},
	}
	return srv, store
}

func serve(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPIProcessAndDescribe(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.routes()

	w := serve(t, h, http.MethodPost, "/api/process", `{"url":"https://youtu.be/abc","title":"Talk"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var created api.ProcessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created.TaskID) != 8 {
		t.Fatalf("unexpected task id %q", created.TaskID)
	}

	w = serve(t, h, http.MethodGet, "/api/tasks/"+created.TaskID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var task api.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Title != "Talk" || task.Status != "queued" {
		t.Fatalf("unexpected task %+v", task)
	}
	if strings.Contains(w.Body.String(), "audio_path") {
		t.Fatalf("audio path leaked: %s", w.Body.String())
	}
}

func TestAPIBatchAndList(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.routes()

	w := serve(t, h, http.MethodPost, "/api/batch", `{"videos":[{"url":"https://youtu.be/1"},{"url":"https://youtu.be/2"}]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var batch api.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(batch.TaskIDs) != 2 {
		t.Fatalf("expected 2 ids, got %v", batch.TaskIDs)
	}

	w = serve(t, h, http.MethodGet, "/api/tasks?status=queued", "", nil)
	var list api.TaskListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list.Tasks))
	}

	w = serve(t, h, http.MethodGet, "/api/tasks?status=bogus", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}

func TestAPIRejectsBadSubmissions(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.routes()

	if w := serve(t, h, http.MethodPost, "/api/process", `{"title":"no url"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing url, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodPost, "/api/process", `not json`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodGet, "/api/process", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPITaskNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.routes()

	for _, path := range []string{"/api/tasks/missing", "/api/tasks/missing/download/audio", "/api/tasks/missing/download/transcript"} {
		w := serve(t, h, http.MethodGet, path, "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "task not found") {
			t.Fatalf("%s: unexpected body %s", path, w.Body.String())
		}
	}
}

func TestAPIDownloads(t *testing.T) {
	srv, store := newTestServer(t, "")
	h := srv.routes()
	ctx := context.Background()

	task := testsupport.NewTask(t, store, "https://youtu.be/x", "My/Talk")
	w := serve(t, h, http.MethodGet, "/api/tasks/"+task.ID+"/download/audio", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "audio file not available") {
		t.Fatalf("expected audio unavailable, got %d %s", w.Code, w.Body.String())
	}
	w = serve(t, h, http.MethodGet, "/api/tasks/"+task.ID+"/download/transcript", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "transcript not available") {
		t.Fatalf("expected transcript unavailable, got %d %s", w.Code, w.Body.String())
	}

	dir := t.TempDir()
	task.AudioPath = filepath.Join(dir, "talk.mp3")
	if err := os.WriteFile(task.AudioPath, []byte("ID3audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	task.TranscriptPath = filepath.Join(dir, "talk.md")
	if err := os.WriteFile(task.TranscriptPath, []byte("# My/Talk\n\nFINAL\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	task.Content = "partial"
	task.Status = queue.StatusDone
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("Update: %v", err)
	}

	w = serve(t, h, http.MethodGet, "/api/tasks/"+task.ID+"/download/audio", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ID3audio" {
		t.Fatalf("unexpected audio response %d %q", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "talk.mp3") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}

	w = serve(t, h, http.MethodGet, "/api/tasks/"+task.ID+"/download/transcript", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "# My/Talk\n\nFINAL\n" {
		t.Fatalf("unexpected transcript response %d %q", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "MyTalk.md") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}

func TestAPIAuth(t *testing.T) {
	srv, _ := newTestServer(t, "secret")
	h := srv.routes()

	if w := serve(t, h, http.MethodGet, "/api/tasks", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodGet, "/api/tasks", "", map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodGet, "/api/tasks", "", map[string]string{"Authorization": "Bearer secret"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodGet, "/api/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected health to skip auth, got %d", w.Code)
	}
	w := serve(t, h, http.MethodOptions, "/api/tasks", "", nil)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %v", w.Code, w.Header())
	}
}

func TestAPIHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")
	w := serve(t, srv.routes(), http.MethodGet, "/api/health", "", nil)
	var resp api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || !resp.Workflow.Running {
		t.Fatalf("unexpected health %+v", resp)
	}
	if _, ok := resp.Workflow.QueueStats["queued"]; !ok {
		t.Fatalf("expected zero-filled queue stats, got %v", resp.Workflow.QueueStats)
	}
}
