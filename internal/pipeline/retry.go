package pipeline

import (
	"context"
	"log/slog"

	"yt2text/internal/formatting"
	"yt2text/internal/logging"
)

// retry makes one more single-attempt pass over the given paragraphs after
// the cooldown. Paragraphs that fail again keep rendering from raw text.
func (p *Pipeline) retry(ctx context.Context, r *run, indices []int, logger *slog.Logger) error {
	logger.Info("retrying failed paragraphs",
		logging.String(logging.FieldEventType, "retry_start"),
		logging.Int("paragraphs", len(indices)),
		logging.Duration("cooldown", p.opts.RetryCooldown),
	)
	if err := p.wait(ctx, p.opts.RetryCooldown); err != nil {
		return err
	}

	opts := p.opts.Formatting
	opts.Workers = p.opts.RetryWorkers
	opts.MaxAttempts = 1
	pool := formatting.NewPool(p.formatter, opts, p.logger)
	defer pool.Close()

	for _, idx := range indices {
		pool.Submit(ctx, r.paragraphs[idx])
	}
	recovered := 0
	err := pool.Drain(ctx, func(c formatting.Completion) {
		if c.OK() {
			recovered++
		}
		r.apply(c)
		r.report()
	})
	if err != nil {
		return err
	}

	if still := len(indices) - recovered; still > 0 {
		logging.WarnWithContext(logger, "paragraphs left unformatted",
			"retry_exhausted",
			logging.Int("recovered", recovered),
			logging.Int("unformatted", still),
			logging.String(logging.FieldImpact, "those paragraphs appear as raw transcript text"),
			logging.String(logging.FieldErrorHint, "rerun with 'yt2text format' once the LLM provider is healthy"),
		)
		return nil
	}
	logger.Info("retry pass recovered every paragraph",
		logging.String(logging.FieldEventType, "retry_complete"),
		logging.Int("recovered", recovered),
	)
	return nil
}
