package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"yt2text/internal/config"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	t.Setenv("YT2TEXT_API_TOKEN", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateHome(t)
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(home, ".config", "yt2text", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(home, "yt2text", "output") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.StateDir != filepath.Join(home, ".local", "share", "yt2text") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.QueueDBPath() != filepath.Join(cfg.Paths.StateDir, "queue.db") {
		t.Fatalf("unexpected queue path: %q", cfg.QueueDBPath())
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLMTimeout() != 600*time.Second {
		t.Fatalf("unexpected llm timeout %s", cfg.LLMTimeout())
	}
	if cfg.Transcription.Language != "zh" || cfg.Transcription.GapThresholdSeconds != 1.5 || cfg.Transcription.MaxParagraphChars != 500 {
		t.Fatalf("unexpected transcription defaults: %+v", cfg.Transcription)
	}
	f := cfg.Formatting
	if f.Workers != 5 || f.MaxAttempts != 3 || f.RetryWorkers != 1 || f.StructureMinParagraphs != 3 || f.StructurePreviewChars != 150 {
		t.Fatalf("unexpected formatting defaults: %+v", f)
	}
	if f.RetryCooldownSeconds != 30 || f.NetworkRetrySeconds != 10 || f.RetryBaseSeconds != 2 {
		t.Fatalf("unexpected retry defaults: %+v", f)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.AudioDir, cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadHonoursXDGStateHome(t *testing.T) {
	isolateHome(t)
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.StateDir != filepath.Join(state, "yt2text") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.LogDir != filepath.Join(state, "yt2text", "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "yt2text.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"llm"`
		Transcription struct {
			Language        string `toml:"language"`
			ParagraphJoiner string `toml:"paragraph_joiner"`
		} `toml:"transcription"`
		Formatting struct {
			Workers int `toml:"workers"`
		} `toml:"formatting"`
		Workflow struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.LLM.APIKey = "file-key"
	custom.LLM.Model = "openai/gpt-4o-mini"
	custom.Transcription.Language = "EN"
	custom.Transcription.ParagraphJoiner = " "
	custom.Formatting.Workers = 8
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("expected file key to win over env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected model %q", cfg.LLM.Model)
	}
	if cfg.Transcription.Language != "en" {
		t.Fatalf("expected lowercased language, got %q", cfg.Transcription.Language)
	}
	if cfg.Transcription.ParagraphJoiner != " " {
		t.Fatalf("expected joiner to be preserved, got %q", cfg.Transcription.ParagraphJoiner)
	}
	if cfg.Formatting.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Formatting.Workers)
	}
	if cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("expected heartbeat timeout 200, got %d", cfg.Workflow.HeartbeatTimeout)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "yt2text.toml")
	if err := os.WriteFile(configPath, []byte("[formatting]\nworkerz = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "workerz") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "OPENROUTER_API_KEY") {
		t.Fatalf("sample config should mention the API key env var: %s", contents)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config must load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Formatting.Workers != config.Default().Formatting.Workers {
		t.Fatalf("sample should keep defaults, got %d workers", cfg.Formatting.Workers)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"heartbeat interval", func(c *config.Config) { c.Workflow.HeartbeatInterval = 0 }},
		{"timeout not above interval", func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval }},
		{"workers", func(c *config.Config) { c.Formatting.Workers = -1 }},
		{"negative cooldown", func(c *config.Config) { c.Formatting.RetryCooldownSeconds = -1 }},
		{"retry max below base", func(c *config.Config) { c.Formatting.RetryMaxSeconds = 1 }},
		{"vad method", func(c *config.Config) { c.Transcription.VADMethod = "webrtc" }},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"playlist limit", func(c *config.Config) { c.Download.PlaylistLimit = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestRequireLLM(t *testing.T) {
	isolateHome(t)
	cfg := config.Default()
	if err := cfg.RequireLLM(); err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	cfg.LLM.APIKey = "k"
	if err := cfg.RequireLLM(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSeconds(t *testing.T) {
	if got := config.Seconds(1.5); got != 1500*time.Millisecond {
		t.Fatalf("Seconds(1.5) = %s", got)
	}
}
