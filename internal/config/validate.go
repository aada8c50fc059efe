package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate ensures the configuration is usable. Credentials are not checked
// here; commands that need the LLM call RequireLLM.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateFormatting(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireLLM reports a configuration error when no API key is available.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY (a .env file works) or edit %s (create with 'yt2text config init')", defaultPath)
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.GapThresholdSeconds < 0 {
		return errors.New("transcription.gap_threshold_seconds must be >= 0")
	}
	if t.MaxParagraphChars < 0 {
		return errors.New("transcription.max_paragraph_chars must be positive")
	}
	if !slices.Contains([]string{"silero", "pyannote"}, t.VADMethod) {
		return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", t.VADMethod)
	}
	return nil
}

func (c *Config) validateFormatting() error {
	f := c.Formatting
	if err := ensurePositiveMap(map[string]int{
		"formatting.workers":                  f.Workers,
		"formatting.max_attempts":             f.MaxAttempts,
		"formatting.retry_workers":            f.RetryWorkers,
		"formatting.structure_min_paragraphs": f.StructureMinParagraphs,
		"formatting.structure_preview_chars":  f.StructurePreviewChars,
		"llm.timeout_seconds":                 c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	for key, value := range map[string]float64{
		"formatting.retry_base_seconds":     f.RetryBaseSeconds,
		"formatting.network_retry_seconds":  f.NetworkRetrySeconds,
		"formatting.retry_cooldown_seconds": f.RetryCooldownSeconds,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	if f.RetryMaxSeconds < f.RetryBaseSeconds {
		return errors.New("formatting.retry_max_seconds must be >= formatting.retry_base_seconds")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.PlaylistLimit < 0 {
		return errors.New("download.playlist_limit must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.heartbeat_interval":  c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":   c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
