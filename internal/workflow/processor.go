package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"yt2text/internal/config"
	"yt2text/internal/formatting"
	"yt2text/internal/logging"
	"yt2text/internal/pipeline"
	"yt2text/internal/queue"
	"yt2text/internal/services"
	"yt2text/internal/services/llm"
	"yt2text/internal/services/whisperx"
	"yt2text/internal/services/ytdlp"
	"yt2text/internal/storage"
)

// Downloader resolves titles and fetches audio for a video URL.
type Downloader interface {
	Title(ctx context.Context, url string) (string, error)
	DownloadAudio(ctx context.Context, url, title string, progress ytdlp.ProgressFunc) (ytdlp.Audio, error)
}

// entryLister is implemented by downloaders that can expand channel and
// playlist pages.
type entryLister interface {
	ListEntries(ctx context.Context, pageURL string, limit int) ([]string, error)
}

// audioExtractor is implemented by speech sources that can normalize audio
// before transcription.
type audioExtractor interface {
	ExtractAudio(ctx context.Context, src, dest string) error
}

// Job is one video to turn into a document.
type Job struct {
	URL   string
	Title string
	// OutputPath overrides the document location. Empty derives it from the
	// title inside paths.output_dir.
	OutputPath string
}

// Hooks observe a Process call. Every hook is optional and runs on the
// calling goroutine.
type Hooks struct {
	OnTitle    func(title string)
	OnStage    func(status queue.Status)
	OnAudio    func(audio ytdlp.Audio)
	OnDownload ytdlp.ProgressFunc
	Progress   pipeline.ProgressFunc
	OnState    func(pipeline.State)
}

// Outcome is the result of a successful Process call.
type Outcome struct {
	Title          string
	AudioPath      string
	TranscriptPath string
	Result         *pipeline.Result
	Download       time.Duration
	Total          time.Duration
}

// Timings merges download and pipeline stage timings in seconds.
func (o *Outcome) Timings() map[string]float64 {
	if o == nil {
		return nil
	}
	out := map[string]float64{}
	if o.Result != nil {
		out = o.Result.Timings.Seconds()
	}
	out["download"] = o.Download.Seconds()
	out["total"] = o.Total.Seconds()
	return out
}

// Processor downloads a video and runs the transcription pipeline over it.
type Processor struct {
	cfg        *config.Config
	logger     *slog.Logger
	downloader Downloader
	source     pipeline.SpeechSource
	formatter  formatting.TextFormatter
	storage    pipeline.Storage
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithDownloader replaces the yt-dlp downloader.
func WithDownloader(d Downloader) ProcessorOption {
	return func(p *Processor) { p.downloader = d }
}

// WithSpeechSource replaces the WhisperX speech source.
func WithSpeechSource(s pipeline.SpeechSource) ProcessorOption {
	return func(p *Processor) { p.source = s }
}

// WithFormatter replaces the LLM formatter.
func WithFormatter(f formatting.TextFormatter) ProcessorOption {
	return func(p *Processor) { p.formatter = f }
}

// WithDocumentStorage replaces the document writer.
func WithDocumentStorage(s pipeline.Storage) ProcessorOption {
	return func(p *Processor) { p.storage = s }
}

// NewProcessor wires the configured collaborators. Options replace any of
// them.
func NewProcessor(cfg *config.Config, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Processor{cfg: cfg, logger: logging.NewComponentLogger(logger, "processor")}
	for _, opt := range opts {
		opt(p)
	}
	if p.downloader == nil {
		p.downloader = ytdlp.New(DownloaderConfig(cfg), logger)
	}
	if p.source == nil {
		p.source = whisperx.NewService(WhisperXConfig(cfg), cfg.FFmpegBinary())
	}
	if p.formatter == nil {
		p.formatter = llm.NewClient(LLMConfig(cfg))
	}
	if p.storage == nil {
		p.storage = storage.FileStorage{}
	}
	return p
}

// Process runs the download stage and then the transcription stage for job.
func (p *Processor) Process(ctx context.Context, job Job, hooks Hooks) (*Outcome, error) {
	started := time.Now()
	logger := logging.WithContext(ctx, p.logger)
	outcome := &Outcome{Title: strings.TrimSpace(job.Title)}

	if outcome.Title == "" {
		title, err := p.downloader.Title(ctx, job.URL)
		if err != nil {
			return nil, err
		}
		outcome.Title = strings.TrimSpace(title)
	}
	if hooks.OnTitle != nil {
		hooks.OnTitle(outcome.Title)
	}

	if hooks.OnStage != nil {
		hooks.OnStage(queue.StatusDownloading)
	}
	downloadStart := time.Now()
	logger.Info("download started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("url", job.URL),
		logging.String("title", outcome.Title),
	)
	audio, err := p.downloader.DownloadAudio(ctx, job.URL, outcome.Title, hooks.OnDownload)
	if err != nil {
		return nil, err
	}
	outcome.Download = time.Since(downloadStart)
	outcome.AudioPath = audio.Path
	if hooks.OnAudio != nil {
		hooks.OnAudio(audio)
	}
	logger.Info("download complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("audio", audio.Path),
		logging.Bool("reused", audio.Reused),
		logging.Duration("elapsed", outcome.Download),
	)

	transcribePath, err := p.prepareAudio(ctx, audio.Path)
	if err != nil {
		return nil, err
	}

	outcome.TranscriptPath = job.OutputPath
	if strings.TrimSpace(outcome.TranscriptPath) == "" {
		outcome.TranscriptPath = storage.DocumentPath(p.cfg.Paths.OutputDir, outcome.Title)
	}
	if hooks.OnStage != nil {
		hooks.OnStage(queue.StatusTranscribing)
	}
	run := pipeline.New(p.source, p.formatter, PipelineOptions(p.cfg), p.logger, pipeline.WithStorage(p.storage))
	result, err := run.Run(ctx, pipeline.Request{
		Title:      outcome.Title,
		AudioPath:  transcribePath,
		Language:   p.cfg.Transcription.Language,
		OutputPath: outcome.TranscriptPath,
		Progress:   hooks.Progress,
		OnState:    hooks.OnState,
	})
	outcome.Result = result
	outcome.Total = time.Since(started)
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Expand returns the video URLs behind url. Single videos, and downloaders
// that cannot list pages, yield url itself.
func (p *Processor) Expand(ctx context.Context, url string, limit int) ([]string, error) {
	lister, ok := p.downloader.(entryLister)
	if ytdlp.IsSingleVideo(url) || !ok {
		return []string{url}, nil
	}
	urls, err := lister.ListEntries(ctx, url, limit)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, services.Wrap(services.ErrValidation, "download", "list entries", "no videos found at "+url, nil)
	}
	logging.WithContext(ctx, p.logger).Info("expanded playlist",
		logging.String("url", url),
		logging.Int("videos", len(urls)),
	)
	return urls, nil
}

// FormatSegments reruns the pipeline over an already transcribed source, such
// as a saved WhisperX JSON file.
func (p *Processor) FormatSegments(ctx context.Context, source pipeline.SpeechSource, title, outputPath string, progress pipeline.ProgressFunc) (*pipeline.Result, error) {
	if strings.TrimSpace(outputPath) == "" {
		outputPath = storage.DocumentPath(p.cfg.Paths.OutputDir, title)
	}
	run := pipeline.New(source, p.formatter, PipelineOptions(p.cfg), p.logger, pipeline.WithStorage(p.storage))
	return run.Run(ctx, pipeline.Request{
		Title:      title,
		Language:   p.cfg.Transcription.Language,
		OutputPath: outputPath,
		Progress:   progress,
	})
}

func (p *Processor) prepareAudio(ctx context.Context, audioPath string) (string, error) {
	if !p.cfg.Transcription.ExtractAudio {
		return audioPath, nil
	}
	extractor, ok := p.source.(audioExtractor)
	if !ok {
		return audioPath, nil
	}
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	dest := filepath.Join(p.cfg.Paths.WorkDir, stem+".wav")
	if err := extractor.ExtractAudio(ctx, audioPath, dest); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcription", "extract audio", audioPath, err)
	}
	return dest, nil
}
