package transcript

import (
	"slices"
	"strings"
)

// Assemble renders the document for the current pipeline state.
//
// Paragraphs render in ascending Index regardless of slice order. A heading in
// headers is written immediately before the paragraph it is keyed to. Each
// paragraph renders its formatted text when present and its raw text
// otherwise. tail, the speech not yet grouped into a paragraph, is appended
// last without a heading.
func Assemble(title string, paragraphs []Paragraph, headers map[int]string, tail string) string {
	ordered := paragraphs
	if !slices.IsSortedFunc(ordered, byIndex) {
		ordered = slices.Clone(paragraphs)
		slices.SortStableFunc(ordered, byIndex)
	}

	blocks := make([]string, 0, len(ordered)*2+2)
	if title = strings.TrimSpace(title); title != "" {
		blocks = append(blocks, "# "+title)
	}
	for _, p := range ordered {
		if heading := strings.TrimSpace(headers[p.Index]); heading != "" {
			blocks = append(blocks, "## "+heading)
		}
		if text := strings.TrimSpace(p.Text()); text != "" {
			blocks = append(blocks, text)
		}
	}
	if tail = strings.TrimSpace(tail); tail != "" {
		blocks = append(blocks, tail)
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func byIndex(a, b Paragraph) int {
	return a.Index - b.Index
}
