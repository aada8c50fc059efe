package transcript

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultGapThreshold      = 1.5
	defaultMaxParagraphChars = 500
)

// SegmenterOptions tunes paragraph boundary placement.
type SegmenterOptions struct {
	// GapThreshold is the silence, in seconds, that closes a paragraph.
	GapThreshold float64
	// MaxParagraphChars closes a paragraph once its accumulated text reaches
	// this many characters. A single longer segment is never split.
	MaxParagraphChars int
	// Joiner is placed between segment texts inside a paragraph.
	Joiner string
}

func (o SegmenterOptions) withDefaults() SegmenterOptions {
	if o.GapThreshold <= 0 {
		o.GapThreshold = defaultGapThreshold
	}
	if o.MaxParagraphChars <= 0 {
		o.MaxParagraphChars = defaultMaxParagraphChars
	}
	return o
}

// Segmenter groups a time-ordered stream of segments into paragraphs. It is
// not safe for concurrent use.
type Segmenter struct {
	opts    SegmenterOptions
	parts   []string
	chars   int
	lastEnd float64
	created int
}

// NewSegmenter constructs a segmenter. Non-positive thresholds fall back to
// package defaults.
func NewSegmenter(opts SegmenterOptions) *Segmenter {
	return &Segmenter{opts: opts.withDefaults()}
}

// Push consumes the next segment. When the segment starts a new paragraph the
// accumulated one is returned with ok set.
func (s *Segmenter) Push(seg Segment) (Paragraph, bool) {
	text := strings.TrimSpace(seg.Text)
	if text == "" {
		s.lastEnd = seg.End
		return Paragraph{}, false
	}

	var (
		flushed Paragraph
		ok      bool
	)
	gap := seg.Start - s.lastEnd
	if len(s.parts) > 0 && (gap >= s.opts.GapThreshold || s.chars >= s.opts.MaxParagraphChars) {
		flushed, ok = s.Flush()
	}

	s.parts = append(s.parts, text)
	s.chars += utf8.RuneCountInString(text)
	s.lastEnd = seg.End
	return flushed, ok
}

// Flush closes the accumulated paragraph, if any. It is called at end of
// stream and internally when a boundary is reached.
func (s *Segmenter) Flush() (Paragraph, bool) {
	if len(s.parts) == 0 {
		return Paragraph{}, false
	}
	p := Paragraph{Index: s.created, Raw: strings.Join(s.parts, s.opts.Joiner)}
	s.created++
	s.parts = s.parts[:0]
	s.chars = 0
	return p, true
}

// Tail returns the text accumulated since the last flushed paragraph.
func (s *Segmenter) Tail() string {
	return strings.Join(s.parts, s.opts.Joiner)
}

// Created reports how many paragraphs have been flushed.
func (s *Segmenter) Created() int {
	return s.created
}

// Split runs a complete segment slice through a fresh Segmenter.
func Split(segments []Segment, opts SegmenterOptions) []Paragraph {
	s := NewSegmenter(opts)
	var out []Paragraph
	for _, seg := range segments {
		if p, ok := s.Push(seg); ok {
			out = append(out, p)
		}
	}
	if p, ok := s.Flush(); ok {
		out = append(out, p)
	}
	return out
}
