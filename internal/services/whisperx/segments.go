package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"regexp"
	"strconv"
	"strings"

	"yt2text/internal/services"
	"yt2text/internal/transcript"
)

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript drops word timings.
func (s Segment) Transcript() transcript.Segment {
	return transcript.Segment{Text: s.Text, Start: s.Start, End: s.End}
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// segmentLine matches verbose output such as
// "Transcript: [0.031 --> 2.5]  text" or "[00:01.200 --> 00:03.000] text".
var segmentLine = regexp.MustCompile(`\[\s*([0-9:.]+)\s*-->\s*([0-9:.]+)\s*\]\s*(.*)$`)

// ParseSegmentLine extracts one segment from a verbose WhisperX output line.
// Lines without a time range or text are rejected.
func ParseSegmentLine(line string) (transcript.Segment, bool) {
	m := segmentLine.FindStringSubmatch(line)
	if m == nil {
		return transcript.Segment{}, false
	}
	start, err := parseTimestamp(m[1])
	if err != nil {
		return transcript.Segment{}, false
	}
	end, err := parseTimestamp(m[2])
	if err != nil {
		return transcript.Segment{}, false
	}
	text := strings.TrimSpace(m[3])
	if text == "" {
		return transcript.Segment{}, false
	}
	return transcript.Segment{Text: text, Start: start, End: end}, true
}

// parseTimestamp accepts plain seconds, MM:SS.mmm or HH:MM:SS.mmm.
func parseTimestamp(value string) (float64, error) {
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("timestamp %q: too many fields", value)
	}
	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: %w", value, err)
		}
		total = total*60 + n
	}
	return total, nil
}

// FileSource replays a saved WhisperX JSON document. The audio path passed to
// Transcribe is ignored.
type FileSource struct {
	Path string
}

// Transcribe yields every segment of the saved document.
func (f FileSource) Transcribe(ctx context.Context, _, _ string) iter.Seq2[transcript.Segment, error] {
	return func(yield func(transcript.Segment, error) bool) {
		segments, err := LoadSegments(f.Path)
		if err != nil {
			yield(transcript.Segment{}, services.Wrap(services.ErrValidation, "transcription", "load segments", f.Path, err))
			return
		}
		for _, seg := range segments {
			if err := ctx.Err(); err != nil {
				yield(transcript.Segment{}, err)
				return
			}
			if !yield(seg.Transcript(), nil) {
				return
			}
		}
	}
}
