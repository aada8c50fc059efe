package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"yt2text/internal/config"
	"yt2text/internal/formatting"
	"yt2text/internal/logging"
	"yt2text/internal/queue"
	"yt2text/internal/services"
	"yt2text/internal/services/llm"
	"yt2text/internal/services/ytdlp"
	"yt2text/internal/testsupport"
	"yt2text/internal/workflow"
)

type fakeDownloader struct {
	dir   string
	title string
	err   error

	mu        sync.Mutex
	downloads []string
}

func (d *fakeDownloader) Title(_ context.Context, url string) (string, error) {
	if d.title == "" {
		return "", errors.New("no title for " + url)
	}
	return d.title, nil
}

func (d *fakeDownloader) DownloadAudio(_ context.Context, url, title string, progress ytdlp.ProgressFunc) (ytdlp.Audio, error) {
	d.mu.Lock()
	d.downloads = append(d.downloads, url)
	d.mu.Unlock()
	if d.err != nil {
		return ytdlp.Audio{}, d.err
	}
	if progress != nil {
		progress(50)
		progress(100)
	}
	path := filepath.Join(d.dir, title+".mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return ytdlp.Audio{}, err
	}
	return ytdlp.Audio{Path: path, Title: title}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	cfg.Formatting.RetryBaseSeconds = 0
	cfg.Formatting.RetryMaxSeconds = 0
	cfg.Formatting.NetworkRetrySeconds = 0
	cfg.Formatting.RetryCooldownSeconds = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return cfg
}

func waitForStatus(t *testing.T, store *queue.Store, id string, want queue.Status) *queue.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if task != nil && task.Status == want {
			return task
		}
		time.Sleep(20 * time.Millisecond)
	}
	task, _ := store.GetByID(context.Background(), id)
	t.Fatalf("task %s did not reach %s: %#v", id, want, task)
	return nil
}

func TestManagerProcessesTask(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	downloader := &fakeDownloader{dir: cfg.Paths.AudioDir, title: "Resolved Talk"}
	formatter := &testsupport.FakeFormatter{StructureInstruction: llm.StructurePrompt, StructureReply: "1:Intro"}
	source := testsupport.SliceSource{Segments: testsupport.SpacedSegments("alpha", "beta", "gamma")}

	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithDownloader(downloader),
		workflow.WithSpeechSource(source),
		workflow.WithFormatter(formatter),
	)
	task := testsupport.NewTask(t, store, "https://www.youtube.com/watch?v=abc", "")

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	mgr.Wake()

	done := waitForStatus(t, store, task.ID, queue.StatusDone)
	if done.Title != "Resolved Talk" {
		t.Fatalf("title not resolved: %q", done.Title)
	}
	want := "# Resolved Talk\n\n## Intro\n\nALPHA\n\nBETA\n\nGAMMA\n"
	if done.Content != want {
		t.Fatalf("unexpected content %q", done.Content)
	}
	if done.FormattedCount != 3 || done.ParagraphCount != 3 {
		t.Fatalf("unexpected counts %d/%d", done.FormattedCount, done.ParagraphCount)
	}
	if done.TranscriptPath != filepath.Join(cfg.Paths.OutputDir, "Resolved_Talk.md") {
		t.Fatalf("unexpected transcript path %q", done.TranscriptPath)
	}
	data, err := os.ReadFile(done.TranscriptPath)
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	if string(data) != want {
		t.Fatalf("written document differs: %q", data)
	}
	timings := done.Timings()
	for _, key := range []string{"download", "transcription", "formatting", "retry", "structure", "total"} {
		if _, ok := timings[key]; !ok {
			t.Fatalf("timing %q missing: %v", key, timings)
		}
	}
	if done.LastHeartbeat != nil {
		t.Fatal("heartbeat should be cleared on completion")
	}
}

func TestManagerRecordsFriendlyFailure(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	downloader := &fakeDownloader{
		dir: cfg.Paths.AudioDir,
		err: &ytdlp.DownloadError{Kind: ytdlp.FailureMembersOnly, Op: "download audio", URL: "u"},
	}
	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithDownloader(downloader),
		workflow.WithSpeechSource(testsupport.SliceSource{}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	)
	task := testsupport.NewTask(t, store, "https://www.youtube.com/watch?v=members", "Members")

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	failed := waitForStatus(t, store, task.ID, queue.StatusFailed)
	if !strings.Contains(strings.ToLower(failed.ErrorMessage), "members") {
		t.Fatalf("expected members-only message, got %q", failed.ErrorMessage)
	}
	if summary := mgr.Status(context.Background()); summary.LastError == "" || summary.QueueStats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected status summary %+v", summary)
	}
}

func TestManagerTruncatesLongFailureMessages(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	downloader := &fakeDownloader{dir: cfg.Paths.AudioDir, err: errors.New(strings.Repeat("x", 2000))}
	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithDownloader(downloader),
		workflow.WithSpeechSource(testsupport.SliceSource{}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	)
	task := testsupport.NewTask(t, store, "https://www.youtube.com/watch?v=long", "Long")

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	failed := waitForStatus(t, store, task.ID, queue.StatusFailed)
	if n := len([]rune(failed.ErrorMessage)); n != 500 || !strings.HasSuffix(failed.ErrorMessage, "…") {
		t.Fatalf("expected a 500 rune message ending in an ellipsis, got %d runes", n)
	}
}

func TestManagerStartRequeuesInterruptedTasks(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := testsupport.NewTask(t, store, "https://example.com/v", "Interrupted")
	task.Status = queue.StatusTranscribing
	if err := store.Update(context.Background(), task); err != nil {
		t.Fatalf("Update: %v", err)
	}

	downloader := &fakeDownloader{dir: cfg.Paths.AudioDir}
	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithDownloader(downloader),
		workflow.WithSpeechSource(testsupport.SliceSource{Segments: testsupport.SpacedSegments("only")}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	done := waitForStatus(t, store, task.ID, queue.StatusDone)
	if done.Content != "# Interrupted\n\nONLY\n" {
		t.Fatalf("unexpected content %q", done.Content)
	}
}

func TestManagerStartTwice(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithDownloader(&fakeDownloader{}),
		workflow.WithSpeechSource(testsupport.SliceSource{}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	if !mgr.Status(context.Background()).Running {
		t.Fatal("expected running status")
	}
}

func TestProcessorRunsStagesInOrder(t *testing.T) {
	cfg := testConfig(t)
	downloader := &fakeDownloader{dir: cfg.Paths.AudioDir}
	processor := workflow.NewProcessor(cfg, logging.NewNop(),
		workflow.WithDownloader(downloader),
		workflow.WithSpeechSource(testsupport.SliceSource{Segments: testsupport.SpacedSegments("one", "two")}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	)

	var stages []queue.Status
	var downloads []float64
	var lastTotal int
	output := filepath.Join(t.TempDir(), "custom.md")
	outcome, err := processor.Process(context.Background(), workflow.Job{URL: "https://example.com/v", Title: "Given", OutputPath: output}, workflow.Hooks{
		OnStage:    func(s queue.Status) { stages = append(stages, s) },
		OnDownload: func(p float64) { downloads = append(downloads, p) },
		Progress:   func(_ string, _, total int) { lastTotal = total },
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(stages) != 2 || stages[0] != queue.StatusDownloading || stages[1] != queue.StatusTranscribing {
		t.Fatalf("unexpected stages %v", stages)
	}
	if len(downloads) != 2 || downloads[1] != 100 {
		t.Fatalf("unexpected download progress %v", downloads)
	}
	if lastTotal != 2 {
		t.Fatalf("expected 2 paragraphs reported, got %d", lastTotal)
	}
	if outcome.TranscriptPath != output {
		t.Fatalf("output override ignored: %q", outcome.TranscriptPath)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("document missing: %v", err)
	}
	if outcome.Result.Document != "# Given\n\nONE\n\nTWO\n" {
		t.Fatalf("unexpected document %q", outcome.Result.Document)
	}
}

func TestProcessorSourceFailure(t *testing.T) {
	cfg := testConfig(t)
	sourceErr := services.Wrap(services.ErrExternalTool, "transcription", "whisperx", "exit status 1", nil)
	processor := workflow.NewProcessor(cfg, logging.NewNop(),
		workflow.WithDownloader(&fakeDownloader{dir: cfg.Paths.AudioDir}),
		workflow.WithSpeechSource(testsupport.SliceSource{Err: sourceErr}),
		workflow.WithFormatter(&testsupport.FakeFormatter{}),
	)
	_, err := processor.Process(context.Background(), workflow.Job{URL: "u", Title: "T"}, workflow.Hooks{})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.HasPrefix(services.FailureMessage(err), "transcription failed") {
		t.Fatalf("unexpected failure message %q", services.FailureMessage(err))
	}
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcription.ParagraphJoiner = " "
	cfg.Formatting.Workers = 7
	cfg.Formatting.RetryCooldownSeconds = 12
	opts := workflow.PipelineOptions(cfg)
	if opts.Formatting.Workers != 7 || opts.Segmenter.Joiner != " " {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.RetryCooldown != 12*time.Second {
		t.Fatalf("unexpected cooldown %v", opts.RetryCooldown)
	}
	if opts.StructureInstruction != llm.StructurePrompt || opts.Formatting.Instruction == "" {
		t.Fatal("prompts not wired")
	}
	if opts.Formatting.Timeout != cfg.LLMTimeout() {
		t.Fatalf("unexpected timeout %v", opts.Formatting.Timeout)
	}
}

func TestManagerStoresLiveDocumentWhileFormatting(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	release := make(chan struct{})
	formatter := formatting.FormatterFunc(func(ctx context.Context, _, user string, _ time.Duration) (string, error) {
		select {
		case <-release:
			return strings.ToUpper(user), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	source := testsupport.SliceSource{Segments: testsupport.SpacedSegments("alpha", "beta", "gamma", "delta", "epsilon", "zeta")}

	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithDownloader(&fakeDownloader{dir: cfg.Paths.AudioDir, title: "T"}),
		workflow.WithSpeechSource(source),
		workflow.WithFormatter(formatter),
	)
	task := testsupport.NewTask(t, store, "https://www.youtube.com/watch?v=live", "")
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	mgr.Wake()

	deadline := time.Now().Add(5 * time.Second)
	var live *queue.Task
	for time.Now().Before(deadline) {
		got, err := store.GetByID(context.Background(), task.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got != nil && strings.Contains(got.Content, "zeta") {
			live = got
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if live == nil {
		got, _ := store.GetByID(context.Background(), task.ID)
		close(release)
		t.Fatalf("live document never reached the last segment: %#v", got)
	}
	for _, word := range []string{"# T", "alpha", "gamma", "epsilon", "zeta"} {
		if !strings.Contains(live.Content, word) {
			t.Fatalf("live document missing %q: %q", word, live.Content)
		}
	}
	if live.FormattedCount != 0 || live.Status != queue.StatusTranscribing {
		t.Fatalf("expected unformatted in-flight task, got %d/%d %s", live.FormattedCount, live.ParagraphCount, live.Status)
	}

	close(release)
	done := waitForStatus(t, store, task.ID, queue.StatusDone)
	if !strings.Contains(done.Content, "ZETA") {
		t.Fatalf("final document not formatted: %q", done.Content)
	}
}
