package testsupport

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	"yt2text/internal/transcript"
)

// FakeFormatter answers formatting calls without a network. Paragraph calls
// return the upper-cased text; calls whose instruction equals
// StructureInstruction return StructureReply.
type FakeFormatter struct {
	StructureInstruction string
	StructureReply       string
	// Fail maps user text to an error returned on every call.
	Fail map[string]error

	mu    sync.Mutex
	calls []string
}

// Format implements formatting.TextFormatter.
func (f *FakeFormatter) Format(ctx context.Context, system, user string, _ time.Duration) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, user)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.StructureInstruction != "" && system == f.StructureInstruction {
		return f.StructureReply, nil
	}
	if err, ok := f.Fail[user]; ok {
		return "", err
	}
	return strings.ToUpper(user), nil
}

// Calls returns the user texts seen so far.
func (f *FakeFormatter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// SliceSource replays a fixed segment list as a speech source. A non-nil Err
// is yielded after all segments.
type SliceSource struct {
	Segments []transcript.Segment
	Err      error
}

// Transcribe implements pipeline.SpeechSource.
func (s SliceSource) Transcribe(ctx context.Context, _, _ string) iter.Seq2[transcript.Segment, error] {
	return func(yield func(transcript.Segment, error) bool) {
		for _, seg := range s.Segments {
			if ctx.Err() != nil {
				yield(transcript.Segment{}, ctx.Err())
				return
			}
			if !yield(seg, nil) {
				return
			}
		}
		if s.Err != nil {
			yield(transcript.Segment{}, s.Err)
		}
	}
}

// SpacedSegments builds segments two seconds apart so every one becomes its
// own paragraph with the default gap threshold.
func SpacedSegments(texts ...string) []transcript.Segment {
	out := make([]transcript.Segment, len(texts))
	for i, text := range texts {
		start := float64(i) * 3
		out[i] = transcript.Segment{Text: text, Start: start, End: start + 1}
	}
	return out
}
