package config

const (
	defaultConfigPath            = "~/.config/yt2text/config.toml"
	defaultOutputDir             = "~/yt2text/output"
	defaultAudioDir              = "~/yt2text/audio"
	defaultWorkDir               = "~/.cache/yt2text/work"
	defaultLogDir                = "~/.local/share/yt2text/logs"
	defaultStateDir              = "~/.local/share/yt2text"
	defaultAPIBind               = "127.0.0.1:7488"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-2.5-flash"
	defaultLLMTitle              = "yt2text"
	defaultLLMTimeoutSeconds     = 600
	defaultEngineModel           = "large-v3"
	defaultVADMethod             = "silero"
	defaultLanguage              = "zh"
	defaultGapThresholdSeconds   = 1.5
	defaultMaxParagraphChars     = 500
	defaultWorkers               = 5
	defaultMaxAttempts           = 3
	defaultRetryBaseSeconds      = 2
	defaultRetryMaxSeconds       = 60
	defaultNetworkRetrySeconds   = 10
	defaultRetryCooldownSeconds  = 30
	defaultRetryWorkers          = 1
	defaultStructureMinParagraph = 3
	defaultStructurePreviewChars = 150
	defaultDownloadBinary        = "yt-dlp"
	defaultAudioFormat           = "mp3"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultQueuePollInterval     = 5
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			AudioDir:  defaultAudioDir,
			WorkDir:   xdgDir("XDG_CACHE_HOME", defaultWorkDir, "work"),
			LogDir:    xdgDir("XDG_STATE_HOME", defaultLogDir, "logs"),
			StateDir:  xdgDir("XDG_STATE_HOME", defaultStateDir, ""),
			APIBind:   defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			EngineModel:         defaultEngineModel,
			VADMethod:           defaultVADMethod,
			Language:            defaultLanguage,
			GapThresholdSeconds: defaultGapThresholdSeconds,
			MaxParagraphChars:   defaultMaxParagraphChars,
		},
		Formatting: Formatting{
			Workers:                defaultWorkers,
			MaxAttempts:            defaultMaxAttempts,
			RetryBaseSeconds:       defaultRetryBaseSeconds,
			RetryMaxSeconds:        defaultRetryMaxSeconds,
			NetworkRetrySeconds:    defaultNetworkRetrySeconds,
			RetryCooldownSeconds:   defaultRetryCooldownSeconds,
			RetryWorkers:           defaultRetryWorkers,
			StructureMinParagraphs: defaultStructureMinParagraph,
			StructurePreviewChars:  defaultStructurePreviewChars,
		},
		Download: Download{
			Binary:      defaultDownloadBinary,
			AudioFormat: defaultAudioFormat,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
