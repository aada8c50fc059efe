package workflow

import (
	"yt2text/internal/config"
	"yt2text/internal/formatting"
	"yt2text/internal/pipeline"
	"yt2text/internal/services/llm"
	"yt2text/internal/services/whisperx"
	"yt2text/internal/services/ytdlp"
	"yt2text/internal/transcript"
)

// PipelineOptions maps the configuration onto pipeline settings.
func PipelineOptions(cfg *config.Config) pipeline.Options {
	t := cfg.Transcription
	f := cfg.Formatting
	return pipeline.Options{
		Segmenter: transcript.SegmenterOptions{
			GapThreshold:      t.GapThresholdSeconds,
			MaxParagraphChars: t.MaxParagraphChars,
			Joiner:            t.ParagraphJoiner,
		},
		Formatting: formatting.Options{
			Workers:      f.Workers,
			MaxAttempts:  f.MaxAttempts,
			BaseDelay:    config.Seconds(f.RetryBaseSeconds),
			MaxDelay:     config.Seconds(f.RetryMaxSeconds),
			NetworkDelay: config.Seconds(f.NetworkRetrySeconds),
			Timeout:      cfg.LLMTimeout(),
			Instruction:  llm.ParagraphPrompt(t.Language),
		},
		RetryCooldown:          config.Seconds(f.RetryCooldownSeconds),
		RetryWorkers:           f.RetryWorkers,
		StructureMinParagraphs: f.StructureMinParagraphs,
		StructurePreviewChars:  f.StructurePreviewChars,
		StructureInstruction:   llm.StructurePrompt,
	}
}

// LLMConfig maps the configuration onto the formatter client settings.
func LLMConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}
}

// WhisperXConfig maps the configuration onto the speech engine settings.
func WhisperXConfig(cfg *config.Config) whisperx.Config {
	return whisperx.Config{
		Model:       cfg.Transcription.EngineModel,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
		OutputDir:   cfg.Paths.WorkDir,
	}
}

// DownloaderConfig maps the configuration onto yt-dlp settings.
func DownloaderConfig(cfg *config.Config) ytdlp.Config {
	return ytdlp.Config{
		Binary:             cfg.DownloadBinary(),
		AudioDir:           cfg.Paths.AudioDir,
		AudioFormat:        cfg.Download.AudioFormat,
		CookiesFromBrowser: cfg.Download.CookiesFromBrowser,
	}
}
