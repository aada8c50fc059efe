package formatting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"yt2text/internal/logging"
	"yt2text/internal/services"
	"yt2text/internal/transcript"
)

// ErrPoolClosed is reported for work submitted after Close.
var ErrPoolClosed = errors.New("formatting pool closed")

// Options configures a Pool.
type Options struct {
	// Workers bounds the number of concurrent formatting calls.
	Workers int
	// MaxAttempts is the number of calls made per paragraph before giving up.
	MaxAttempts int
	// BaseDelay and MaxDelay shape the exponential wait after non-network failures.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// NetworkDelay is multiplied by the attempt number after network and timeout failures.
	NetworkDelay time.Duration
	// Jitter is the exponential randomization factor in [0, 1).
	Jitter float64
	// Timeout is passed to every formatting call.
	Timeout time.Duration
	// Instruction is the system instruction sent with every paragraph.
	Instruction string
}

const (
	defaultWorkers     = 5
	defaultMaxAttempts = 3
)

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	if o.Jitter < 0 || o.Jitter >= 1 {
		o.Jitter = 0
	}
	return o
}

// Completion is the observed outcome of one paragraph.
type Completion struct {
	Index    int
	Text     string
	Err      error
	Attempts int
}

// OK reports whether the paragraph was formatted.
func (c Completion) OK() bool {
	return c.Err == nil
}

// Handle tracks one submitted paragraph.
type Handle struct {
	Index  int
	done   chan struct{}
	result Completion
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the completion when the unit has finished.
func (h *Handle) Result() (Completion, bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return Completion{}, false
	}
}

type job struct {
	ctx    context.Context
	para   transcript.Paragraph
	handle *Handle
}

// Pool formats paragraphs concurrently. Submit, Poll and Pending belong to
// the owning goroutine; workers only resolve handles.
type Pool struct {
	formatter TextFormatter
	opts      Options
	logger    *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool
	wg     sync.WaitGroup

	notify  chan struct{}
	pending map[int]*Handle
	// sleep is swapped by tests that assert on retry delays.
	sleep func(context.Context, time.Duration) error
}

// NewPool starts the worker goroutines. Close must be called to release them.
func NewPool(formatter TextFormatter, opts Options, logger *slog.Logger) *Pool {
	opts = opts.withDefaults()
	p := &Pool{
		formatter: formatter,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "formatting"),
		notify:    make(chan struct{}, 1),
		pending:   make(map[int]*Handle),
	}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go p.worker()
	}
	return p
}

// Options returns the effective configuration.
func (p *Pool) Options() Options {
	return p.opts
}

// Submit queues a paragraph and returns immediately. A paragraph index that
// is already pending replaces nothing; the earlier handle is returned.
func (p *Pool) Submit(ctx context.Context, para transcript.Paragraph) *Handle {
	if h, ok := p.pending[para.Index]; ok {
		return h
	}
	h := &Handle{Index: para.Index, done: make(chan struct{})}
	p.pending[para.Index] = h

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.resolve(h, Completion{Index: para.Index, Err: ErrPoolClosed})
		return h
	}
	p.queue = append(p.queue, job{ctx: ctx, para: para, handle: h})
	p.mu.Unlock()
	p.cond.Signal()
	return h
}

// Poll returns every completion that has become available since the last
// call, ordered by paragraph index. It never blocks.
func (p *Pool) Poll() []Completion {
	var out []Completion
	for idx, h := range p.pending {
		if c, ok := h.Result(); ok {
			out = append(out, c)
			delete(p.pending, idx)
		}
	}
	slices.SortFunc(out, func(a, b Completion) int { return a.Index - b.Index })
	return out
}

// Pending reports how many submitted paragraphs have not been returned by Poll.
func (p *Pool) Pending() int {
	return len(p.pending)
}

// Notify delivers a signal after one or more units finish. Signals coalesce,
// so a receiver should Poll until nothing is returned.
func (p *Pool) Notify() <-chan struct{} {
	return p.notify
}

// Drain blocks until every pending paragraph has been observed, invoking fn
// for each completion in index order per batch.
func (p *Pool) Drain(ctx context.Context, fn func(Completion)) error {
	for {
		for _, c := range p.Poll() {
			fn(c)
		}
		if p.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.notify:
		}
	}
}

// Close stops accepting work, lets queued units finish and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.resolve(j.handle, p.format(j.ctx, j.para))
	}
}

func (p *Pool) resolve(h *Handle, c Completion) {
	h.result = c
	close(h.done)
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pool) format(ctx context.Context, para transcript.Paragraph) Completion {
	logger := logging.WithContext(ctx, p.logger).With(logging.Int(logging.FieldParagraph, para.Index))
	policy := newKindBackOff(p.opts)

	var b backoff.BackOff = &backoff.StopBackOff{}
	if p.opts.MaxAttempts > 1 {
		b = backoff.WithMaxRetries(policy, uint64(p.opts.MaxAttempts-1))
	}
	b = backoff.WithContext(b, ctx)

	attempts := 0
	operation := func() (string, error) {
		attempts++
		text, err := p.formatter.Format(ctx, p.opts.Instruction, para.Raw, p.opts.Timeout)
		if err == nil && strings.TrimSpace(text) == "" {
			err = &services.RemoteCallError{Kind: services.RemoteOther, Op: "format", Err: errors.New("empty reply")}
		}
		if err != nil {
			policy.observe(err)
			if !retryable(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
	notify := func(err error, wait time.Duration) {
		logging.WarnWithContext(logger, "formatting call failed; retrying",
			"format_retry",
			logging.Int("attempt", attempts),
			logging.String("kind", string(services.RemoteKind(err))),
			logging.Duration("wait", wait),
			logging.Error(err),
			logging.String(logging.FieldImpact, "paragraph shows raw text until a retry succeeds"),
			logging.String(logging.FieldErrorHint, "check network connectivity and LLM provider status"),
		)
	}

	var (
		text string
		err  error
	)
	if p.sleep != nil {
		text, err = backoff.RetryNotifyWithTimerAndData(operation, b, notify, &sleepTimer{ctx: ctx, sleep: p.sleep})
	} else {
		text, err = backoff.RetryNotifyWithData(operation, b, notify)
	}
	if err != nil {
		logging.WarnWithContext(logger, "paragraph formatting failed",
			"format_failed",
			logging.Int("attempts", attempts),
			logging.String("kind", string(services.RemoteKind(err))),
			logging.Error(err),
			logging.String(logging.FieldImpact, "paragraph kept as raw text"),
			logging.String(logging.FieldErrorHint, "the retry pass will try this paragraph again"),
		)
		return Completion{Index: para.Index, Err: fmt.Errorf("format paragraph %d: %w", para.Index, err), Attempts: attempts}
	}
	logger.Debug("paragraph formatted", logging.Int("attempts", attempts), logging.Int("chars", len([]rune(text))))
	return Completion{Index: para.Index, Text: text, Attempts: attempts}
}

func retryable(err error) bool {
	var remote *services.RemoteCallError
	if errors.As(err, &remote) {
		return remote.Retryable()
	}
	return !errors.Is(err, context.Canceled)
}

// sleepTimer adapts an injected sleep function to backoff.Timer.
type sleepTimer struct {
	ctx   context.Context
	sleep func(context.Context, time.Duration) error
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	t.c = make(chan time.Time, 1)
	go func() {
		_ = t.sleep(t.ctx, d)
		t.c <- time.Now()
	}()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}
