package transcript

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const defaultPreviewChars = 150

// Previews returns the first n characters of each paragraph's best text, in
// index order. Whitespace runs are collapsed so each preview fits one line.
func Previews(paragraphs []Paragraph, n int) []string {
	if n <= 0 {
		n = defaultPreviewChars
	}
	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if utf8.RuneCountInString(text) > n {
			text = string([]rune(text)[:n])
		}
		out[i] = text
	}
	return out
}

// PreviewListing numbers previews starting at 1, one per line, in the shape
// the structuring reply refers back to.
func PreviewListing(previews []string) string {
	var b strings.Builder
	for i, preview := range previews {
		fmt.Fprintf(&b, "%d: %s\n", i+1, preview)
	}
	return b.String()
}

// HeadingLineError describes a reply line that could not be used as a heading.
type HeadingLineError struct {
	Line   string
	Reason string
}

func (e *HeadingLineError) Error() string {
	return fmt.Sprintf("heading line %q: %s", e.Line, e.Reason)
}

// ParseHeadings reads a structuring reply made of "index:title" lines, where
// index is 1-based and the separator is an ASCII or full-width colon. It
// returns headings keyed by 0-based paragraph index. Lines that do not parse,
// reference an index outside [1, count], or carry an empty title are skipped
// and reported in the second return value. When two lines name the same
// paragraph the first one wins.
func ParseHeadings(reply string, count int) (map[int]string, []error) {
	headers := make(map[int]string)
	var skipped []error
	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		index, title, err := parseHeadingLine(line, count)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		if _, exists := headers[index]; exists {
			continue
		}
		headers[index] = title
	}
	return headers, skipped
}

func parseHeadingLine(line string, count int) (int, string, error) {
	sep := strings.IndexAny(line, ":：")
	if sep < 0 {
		return 0, "", &HeadingLineError{Line: line, Reason: "missing separator"}
	}
	_, sepSize := utf8.DecodeRuneInString(line[sep:])

	prefix := width.Narrow.String(line[:sep])
	prefix = strings.Trim(prefix, " \t-*•#[]()")
	number, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", &HeadingLineError{Line: line, Reason: "index is not an integer"}
	}
	if number < 1 || number > count {
		return 0, "", &HeadingLineError{Line: line, Reason: fmt.Sprintf("index %d out of range 1..%d", number, count)}
	}

	title := strings.TrimSpace(line[sep+sepSize:])
	title = strings.Trim(title, " \t#*\"'“”「」")
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, "", &HeadingLineError{Line: line, Reason: "empty title"}
	}
	return number - 1, title, nil
}
