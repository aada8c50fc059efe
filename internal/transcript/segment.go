package transcript

import "strings"

// Segment is one timed span of recognized speech. Start and End are seconds
// from the beginning of the audio.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Paragraph is a group of consecutive segments. Index is assigned at creation
// and equals the number of paragraphs created before it. Raw never changes once
// the paragraph exists. An empty Formatted means no formatting attempt has
// succeeded yet.
type Paragraph struct {
	Index     int
	Raw       string
	Formatted string
}

// IsFormatted reports whether a cleaned version has been applied.
func (p Paragraph) IsFormatted() bool {
	return strings.TrimSpace(p.Formatted) != ""
}

// Text returns the best available rendering: the formatted text when present,
// the raw text otherwise.
func (p Paragraph) Text() string {
	if p.IsFormatted() {
		return p.Formatted
	}
	return p.Raw
}

// Finalized counts paragraphs that have a formatted rendering.
func Finalized(paragraphs []Paragraph) int {
	count := 0
	for _, p := range paragraphs {
		if p.IsFormatted() {
			count++
		}
	}
	return count
}

// Unformatted returns the indices of paragraphs still rendering from raw text,
// in ascending order.
func Unformatted(paragraphs []Paragraph) []int {
	var out []int
	for _, p := range paragraphs {
		if !p.IsFormatted() {
			out = append(out, p.Index)
		}
	}
	return out
}
