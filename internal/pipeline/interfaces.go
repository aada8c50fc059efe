package pipeline

import (
	"context"
	"fmt"
	"iter"

	"yt2text/internal/transcript"
)

// SpeechSource produces time-ordered segments for an audio file. An error
// yielded by the sequence ends the run.
type SpeechSource interface {
	Transcribe(ctx context.Context, audioPath, language string) iter.Seq2[transcript.Segment, error]
}

// Storage persists the finished document.
type Storage interface {
	WriteDocument(path, content string) error
}

// ProgressFunc observes the live document. finalized counts formatted
// paragraphs and total counts every paragraph created so far. It is called
// synchronously from the run goroutine.
type ProgressFunc func(document string, finalized, total int)

// FatalSourceError reports a failure of the speech source.
type FatalSourceError struct {
	Err error
}

func (e *FatalSourceError) Error() string {
	return fmt.Sprintf("speech source failed: %v", e.Err)
}

func (e *FatalSourceError) Unwrap() error { return e.Err }

// FriendlyMessage exposes the underlying source error to queue users.
func (e *FatalSourceError) FriendlyMessage() string {
	return "transcription failed: " + e.Err.Error()
}
