package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yt2text/internal/config"
	"yt2text/internal/queue"
	"yt2text/internal/services/ytdlp"
	"yt2text/internal/testsupport"
	"yt2text/internal/workflow"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, key := range []string{"XDG_CONFIG_HOME", "XDG_STATE_HOME", "XDG_CACHE_HOME", "OPENROUTER_API_KEY", "HF_TOKEN", "HUGGING_FACE_HUB_TOKEN", "YT2TEXT_API_TOKEN"} {
		t.Setenv(key, "")
	}
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "yt2text.toml"),
		outputDir:  filepath.Join(base, "output"),
		stateDir:   filepath.Join(base, "state"),
	}
	content := fmt.Sprintf(`[paths]
output_dir = %q
audio_dir = %q
work_dir = %q
log_dir = %q
state_dir = %q
api_bind = "127.0.0.1:0"

[llm]
api_key = "test"

[formatting]
retry_base_seconds = 0
network_retry_seconds = 0
retry_cooldown_seconds = 0

[logging]
level = "error"
`,
		env.outputDir,
		filepath.Join(base, "audio"),
		filepath.Join(base, "work"),
		filepath.Join(base, "logs"),
		env.stateDir,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) run(t *testing.T, opts []workflow.ProcessorOption, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandWithContext(newCommandContext(opts...))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func (e *cliTestEnv) openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(e.stateDir, "queue.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type stubDownloader struct {
	dir     string
	title   string
	entries []string
}

func (d *stubDownloader) Title(context.Context, string) (string, error) {
	return d.title, nil
}

func (d *stubDownloader) DownloadAudio(_ context.Context, _, title string, progress ytdlp.ProgressFunc) (ytdlp.Audio, error) {
	if progress != nil {
		progress(100)
	}
	path := filepath.Join(d.dir, title+".mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return ytdlp.Audio{}, err
	}
	return ytdlp.Audio{Path: path}, nil
}

func (d *stubDownloader) ListEntries(context.Context, string, int) ([]string, error) {
	if len(d.entries) == 0 {
		return nil, errors.New("nothing listed")
	}
	return d.entries, nil
}

func fakeStack(t *testing.T, title string, entries ...string) []workflow.ProcessorOption {
	return []workflow.ProcessorOption{
		workflow.WithDownloader(&stubDownloader{dir: t.TempDir(), title: title, entries: entries}),
		workflow.WithSpeechSource(testsupport.SliceSource{Segments: testsupport.SpacedSegments("alpha", "beta")}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	}
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "new", "config.toml")

	out, err := env.run(t, nil, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if _, err := env.run(t, nil, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, err := env.run(t, nil, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, nil, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.configPath) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSubmitAndQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, nil, "submit", "https://youtu.be/one", "https://youtu.be/two")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if strings.Count(out, "Queued ") != 2 || !strings.Contains(out, "2 tasks queued") {
		t.Fatalf("unexpected submit output %q", out)
	}

	out, err = env.run(t, nil, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "https://youtu.be/one") || !strings.Contains(out, "queued") {
		t.Fatalf("unexpected list output %q", out)
	}

	store := env.openStore(t)
	tasks, err := store.List(context.Background())
	if err != nil || len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d (%v)", len(tasks), err)
	}
	failed := tasks[0]
	failed.SetFailed("video unavailable")
	if err := store.Update(context.Background(), failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, err = env.run(t, nil, "queue", "show", failed.ID)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	if !strings.Contains(out, "video unavailable") || !strings.Contains(out, failed.URL) {
		t.Fatalf("unexpected show output %q", out)
	}

	out, err = env.run(t, nil, "queue", "retry")
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	if !strings.Contains(out, "Requeued 1 failed tasks") {
		t.Fatalf("unexpected retry output %q", out)
	}

	out, err = env.run(t, nil, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(out, "Integrity check: ok") {
		t.Fatalf("unexpected status output %q", out)
	}

	if _, err := env.run(t, nil, "queue", "remove", failed.ID); err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if _, err := env.run(t, nil, "queue", "remove", failed.ID); err == nil {
		t.Fatal("expected error removing a missing task")
	}

	out, err = env.run(t, nil, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 queue tasks") {
		t.Fatalf("unexpected clear output %q", out)
	}

	if _, err := env.run(t, nil, "queue", "clear", "--completed", "--failed"); err == nil {
		t.Fatal("expected error for conflicting clear flags")
	}
	if _, err := env.run(t, nil, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSubmitFromFile(t *testing.T) {
	env := setupCLITestEnv(t)
	list := filepath.Join(env.baseDir, "list.csv")
	if err := os.WriteFile(list, []byte("title,url\nFirst,https://youtu.be/1\nSecond,https://youtu.be/2\n"), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	if _, err := env.run(t, nil, "submit", "--file", list); err != nil {
		t.Fatalf("submit --file: %v", err)
	}
	store := env.openStore(t)
	tasks, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	titles := map[string]bool{}
	for _, task := range tasks {
		titles[task.Title] = true
	}
	if !titles["First"] || !titles["Second"] {
		t.Fatalf("expected titles from list, got %v", titles)
	}

	if _, err := env.run(t, nil, "submit"); err == nil {
		t.Fatal("expected error without urls")
	}
}

func TestRunWritesDocument(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, fakeStack(t, "Demo Talk"), "run", "https://youtu.be/demo")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	doc := filepath.Join(env.outputDir, "Demo_Talk.md")
	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Demo Talk") || !strings.Contains(content, "ALPHA") || !strings.Contains(content, "BETA") {
		t.Fatalf("unexpected document %q", content)
	}
	if !strings.Contains(out, "Wrote "+doc) || !strings.Contains(out, "download") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunExpandsPlaylist(t *testing.T) {
	env := setupCLITestEnv(t)
	opts := fakeStack(t, "Episode", "https://youtu.be/a", "https://youtu.be/b")

	out, err := env.run(t, opts, "run", "https://www.youtube.com/@channel/videos")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Processing 2 videos") || !strings.Contains(out, "[2/2]") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := env.run(t, opts, "run", "https://www.youtube.com/@channel/videos", "--title", "x"); err == nil {
		t.Fatal("expected --title to be rejected for playlists")
	}
}

func TestFormatCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	jsonPath := filepath.Join(env.baseDir, "saved_talk.json")
	payload := `{"segments":[{"start":0,"end":1,"text":"alpha"},{"start":3,"end":4,"text":"beta"}]}`
	if err := os.WriteFile(jsonPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	opts := []workflow.ProcessorOption{workflow.WithFormatter(&testsupport.FakeFormatter{})}

	out, err := env.run(t, opts, "format", jsonPath)
	if err != nil {
		t.Fatalf("format: %v\n%s", err, out)
	}
	data, err := os.ReadFile(filepath.Join(env.outputDir, "saved_talk.md"))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if !strings.HasPrefix(string(data), "# saved talk") {
		t.Fatalf("unexpected document %q", string(data))
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, nil, "status", "--skip-llm")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Dependencies", "yt-dlp", "Preflight", "Output directory", "Queue", "0 total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		1.5: "1.5s",
		75:  "1m15.0s",
	}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
