package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTranscription()
	c.normalizeFormatting()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("YT2TEXT_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.EngineModel = strings.TrimSpace(t.EngineModel)
	if t.EngineModel == "" {
		t.EngineModel = defaultEngineModel
	}
	t.VADMethod = strings.ToLower(strings.TrimSpace(t.VADMethod))
	if t.VADMethod == "" {
		t.VADMethod = defaultVADMethod
	}
	t.HFToken = strings.TrimSpace(t.HFToken)
	if t.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			t.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			t.HFToken = strings.TrimSpace(value)
		}
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	if t.Language == "" {
		t.Language = defaultLanguage
	}
	if t.GapThresholdSeconds == 0 {
		t.GapThresholdSeconds = defaultGapThresholdSeconds
	}
	if t.MaxParagraphChars == 0 {
		t.MaxParagraphChars = defaultMaxParagraphChars
	}
}

func (c *Config) normalizeFormatting() {
	f := &c.Formatting
	if f.Workers == 0 {
		f.Workers = defaultWorkers
	}
	if f.MaxAttempts == 0 {
		f.MaxAttempts = defaultMaxAttempts
	}
	if f.RetryWorkers == 0 {
		f.RetryWorkers = defaultRetryWorkers
	}
	if f.StructureMinParagraphs == 0 {
		f.StructureMinParagraphs = defaultStructureMinParagraph
	}
	if f.StructurePreviewChars == 0 {
		f.StructurePreviewChars = defaultStructurePreviewChars
	}
	if f.RetryMaxSeconds == 0 {
		f.RetryMaxSeconds = defaultRetryMaxSeconds
	}
}

func (c *Config) normalizeDownload() {
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultDownloadBinary
	}
	c.Download.AudioFormat = strings.ToLower(strings.TrimSpace(c.Download.AudioFormat))
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = defaultAudioFormat
	}
	c.Download.CookiesFromBrowser = strings.ToLower(strings.TrimSpace(c.Download.CookiesFromBrowser))
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
