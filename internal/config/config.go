package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	AudioDir  string `toml:"audio_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// LLM contains the OpenAI-compatible endpoint used for paragraph formatting
// and chapter analysis.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription contains speech engine and paragraph segmentation settings.
type Transcription struct {
	EngineModel         string  `toml:"engine_model"`
	CUDAEnabled         bool    `toml:"cuda_enabled"`
	VADMethod           string  `toml:"vad_method"`
	HFToken             string  `toml:"hf_token"`
	Language            string  `toml:"language"`
	GapThresholdSeconds float64 `toml:"gap_threshold_seconds"`
	MaxParagraphChars   int     `toml:"max_paragraph_chars"`
	ParagraphJoiner     string  `toml:"paragraph_joiner"`
	ExtractAudio        bool    `toml:"extract_audio"`
}

// Formatting contains worker pool, retry and structure analysis settings.
type Formatting struct {
	Workers                int     `toml:"workers"`
	MaxAttempts            int     `toml:"max_attempts"`
	RetryBaseSeconds       float64 `toml:"retry_base_seconds"`
	RetryMaxSeconds        float64 `toml:"retry_max_seconds"`
	NetworkRetrySeconds    float64 `toml:"network_retry_seconds"`
	RetryCooldownSeconds   float64 `toml:"retry_cooldown_seconds"`
	RetryWorkers           int     `toml:"retry_workers"`
	StructureMinParagraphs int     `toml:"structure_min_paragraphs"`
	StructurePreviewChars  int     `toml:"structure_preview_chars"`
}

// Download contains yt-dlp settings.
type Download struct {
	Binary             string `toml:"binary"`
	AudioFormat        string `toml:"audio_format"`
	CookiesFromBrowser string `toml:"cookies_from_browser"`
	PlaylistLimit      int    `toml:"playlist_limit"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for yt2text.
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Transcription Transcription `toml:"transcription"`
	Formatting    Formatting    `toml:"formatting"`
	Download      Download      `toml:"download"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("yt2text.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI and daemon write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.AudioDir, c.Paths.WorkDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite queue database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// LockPath returns the single-instance daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "yt2text.lock")
}

// DownloadBinary returns the yt-dlp executable name.
func (c *Config) DownloadBinary() string {
	if b := strings.TrimSpace(c.Download.Binary); b != "" {
		return b
	}
	return defaultDownloadBinary
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// LLMTimeout returns the per-call timeout for remote formatting calls.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Seconds converts a fractional seconds setting into a duration.
func Seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// xdgDir returns <$envKey>/yt2text/<sub> when the XDG variable is set and
// falls back to the given home-relative default otherwise.
func xdgDir(envKey, fallback, sub string) string {
	if base, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "yt2text", sub)
	}
	return fallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
