package pipeline

import (
	"context"
	"log/slog"
	"time"

	"yt2text/internal/formatting"
	"yt2text/internal/logging"
	"yt2text/internal/services"
	"yt2text/internal/transcript"
)

// Options configures a Pipeline.
type Options struct {
	Segmenter  transcript.SegmenterOptions
	Formatting formatting.Options

	// RetryCooldown is the pause before the second pass over failed paragraphs.
	RetryCooldown time.Duration
	// RetryWorkers bounds concurrency during the second pass.
	RetryWorkers int

	// StructureMinParagraphs is the smallest document that gets chapter headings.
	StructureMinParagraphs int
	// StructurePreviewChars is how much of each paragraph the structure call sees.
	StructurePreviewChars int
	// StructureInstruction is the system instruction for the structure call.
	StructureInstruction string
}

const (
	defaultStructureMinParagraphs = 3
	defaultRetryWorkers           = 1
)

func (o Options) withDefaults() Options {
	if o.StructureMinParagraphs <= 0 {
		o.StructureMinParagraphs = defaultStructureMinParagraphs
	}
	if o.RetryWorkers <= 0 {
		o.RetryWorkers = defaultRetryWorkers
	}
	if o.RetryCooldown < 0 {
		o.RetryCooldown = 0
	}
	return o
}

// Request describes one document to produce.
type Request struct {
	Title     string
	AudioPath string
	Language  string
	// OutputPath is passed to Storage once the document is complete. Empty
	// skips the write.
	OutputPath string
	Progress   ProgressFunc
	// OnState is called after every state change.
	OnState func(State)
}

// Result is the outcome of a completed run.
type Result struct {
	Document         string
	Paragraphs       []transcript.Paragraph
	Headers          map[int]string
	Timings          Timings
	FailedParagraphs []int
	State            State
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStorage sets the destination for finished documents.
func WithStorage(storage Storage) Option {
	return func(p *Pipeline) { p.storage = storage }
}

// WithClock replaces the time source used for stage timings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.clock = stopwatch{now: now} }
}

// Pipeline wires a speech source and a text formatter together.
type Pipeline struct {
	source    SpeechSource
	formatter formatting.TextFormatter
	storage   Storage
	opts      Options
	logger    *slog.Logger
	clock     stopwatch
	// wait is swapped by tests to skip the retry cooldown.
	wait func(context.Context, time.Duration) error
}

// New constructs a Pipeline.
func New(source SpeechSource, formatter formatting.TextFormatter, opts Options, logger *slog.Logger, options ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		formatter: formatter,
		opts:      opts.withDefaults(),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		clock:     stopwatch{now: time.Now},
		wait:      sleepContext,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// run holds the mutable state of one Run. Only the Run goroutine touches it.
type run struct {
	req        Request
	machine    stateMachine
	paragraphs []transcript.Paragraph
	headers    map[int]string
	tail       string
}

func (r *run) apply(c formatting.Completion) {
	if c.Index < 0 || c.Index >= len(r.paragraphs) || !c.OK() {
		return
	}
	r.paragraphs[c.Index].Formatted = c.Text
}

func (r *run) document() string {
	return transcript.Assemble(r.req.Title, r.paragraphs, r.headers, r.tail)
}

func (r *run) report() {
	if r.req.Progress == nil {
		return
	}
	r.req.Progress(r.document(), transcript.Finalized(r.paragraphs), len(r.paragraphs))
}

func (r *run) snapshot(timings Timings) *Result {
	paragraphs := make([]transcript.Paragraph, len(r.paragraphs))
	copy(paragraphs, r.paragraphs)
	return &Result{
		Document:         r.document(),
		Paragraphs:       paragraphs,
		Headers:          r.headers,
		Timings:          timings,
		FailedParagraphs: transcript.Unformatted(r.paragraphs),
		State:            r.machine.current,
	}
}

// Run executes the whole pipeline for one request. A failing speech source
// returns a *FatalSourceError together with the partial result. A cancelled
// context returns the context error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	r := &run{req: req, machine: stateMachine{onChange: req.OnState}}
	logger := logging.WithContext(ctx, p.logger)
	var timings Timings
	total := p.clock.start()

	workCtx, cancel := context.WithCancel(ctx)
	pool := formatting.NewPool(p.formatter, p.opts.Formatting, p.logger)
	defer pool.Close()
	defer cancel()

	if err := r.machine.transition(StateSegmenting); err != nil {
		return nil, err
	}
	logger.Info("transcription started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("audio", req.AudioPath),
		logging.String("language", req.Language),
	)

	segmenter := transcript.NewSegmenter(p.opts.Segmenter)
	elapsed := p.clock.start()
	segments := 0
	for segment, err := range p.source.Transcribe(workCtx, req.AudioPath, req.Language) {
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			timings.Transcription = elapsed()
			timings.Total = total()
			if terr := r.machine.transition(StateFailed); terr != nil {
				return nil, terr
			}
			logging.ErrorWithContext(logger, "speech source failed", "stage_failure",
				logging.Error(err),
				logging.Int("segments", segments),
				logging.String(logging.FieldErrorHint, "check the audio file and the transcription engine output"),
			)
			return r.snapshot(timings), &FatalSourceError{Err: err}
		}
		segments++
		if para, ok := segmenter.Push(segment); ok {
			r.paragraphs = append(r.paragraphs, para)
			pool.Submit(workCtx, para)
		}
		r.tail = segmenter.Tail()
		for _, c := range pool.Poll() {
			r.apply(c)
			r.report()
		}
		r.report()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if para, ok := segmenter.Flush(); ok {
		r.paragraphs = append(r.paragraphs, para)
		pool.Submit(workCtx, para)
	}
	r.tail = ""
	timings.Transcription = elapsed()
	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("segments", segments),
		logging.Int("paragraphs", len(r.paragraphs)),
		logging.Duration("elapsed", timings.Transcription),
	)

	if err := r.machine.transition(StateAwaitingFormatting); err != nil {
		return nil, err
	}
	elapsed = p.clock.start()
	if err := pool.Drain(ctx, func(c formatting.Completion) {
		r.apply(c)
		r.report()
	}); err != nil {
		return nil, err
	}
	timings.Formatting = elapsed()
	failed := transcript.Unformatted(r.paragraphs)
	logger.Info("formatting complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("formatted", len(r.paragraphs)-len(failed)),
		logging.Int("failed", len(failed)),
		logging.Duration("elapsed", timings.Formatting),
	)

	if len(failed) > 0 {
		if err := r.machine.transition(StateRetrying); err != nil {
			return nil, err
		}
		elapsed = p.clock.start()
		if err := p.retry(ctx, r, failed, logger); err != nil {
			return nil, err
		}
		timings.Retry = elapsed()
	}

	if len(r.paragraphs) >= p.opts.StructureMinParagraphs {
		if err := r.machine.transition(StateStructuring); err != nil {
			return nil, err
		}
		elapsed = p.clock.start()
		r.headers = p.structure(ctx, r.paragraphs, logger)
		timings.Structure = elapsed()
	}

	if err := r.machine.transition(StateDone); err != nil {
		return nil, err
	}
	r.report()

	result := r.snapshot(timings)
	if p.storage != nil && req.OutputPath != "" {
		if err := p.storage.WriteDocument(req.OutputPath, result.Document); err != nil {
			return result, services.Wrap(services.ErrExternalTool, "pipeline", "write document", req.OutputPath, err)
		}
	}
	result.Timings.Total = total()
	logger.Info("document complete",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("paragraphs", len(result.Paragraphs)),
		logging.Int("headings", len(result.Headers)),
		logging.Int("raw_paragraphs", len(result.FailedParagraphs)),
		logging.Duration("elapsed", result.Timings.Total),
	)
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
