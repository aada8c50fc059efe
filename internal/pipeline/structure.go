package pipeline

import (
	"context"
	"log/slog"

	"yt2text/internal/logging"
	"yt2text/internal/transcript"
)

// structure asks the formatter for chapter headings over paragraph previews.
// Failures are logged and produce a document without headings.
func (p *Pipeline) structure(ctx context.Context, paragraphs []transcript.Paragraph, logger *slog.Logger) map[int]string {
	listing := transcript.PreviewListing(transcript.Previews(paragraphs, p.opts.StructurePreviewChars))
	reply, err := p.formatter.Format(ctx, p.opts.StructureInstruction, listing, p.opts.Formatting.Timeout)
	if err != nil {
		logging.WarnWithContext(logger, "structure analysis failed",
			"structure_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "document has no chapter headings"),
			logging.String(logging.FieldErrorHint, "check LLM provider status; the document text is unaffected"),
		)
		return nil
	}

	headers, skipped := transcript.ParseHeadings(reply, len(paragraphs))
	for _, lineErr := range skipped {
		logger.Debug("structure line skipped", logging.Error(lineErr))
	}
	logger.Info("structure analysis complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("headings", len(headers)),
		logging.Int("skipped_lines", len(skipped)),
	)
	if len(headers) == 0 {
		return nil
	}
	return headers
}
