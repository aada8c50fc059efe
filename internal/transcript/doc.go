// Package transcript holds the data model of a transcription run and the pure
// functions that operate on it.
//
// Segments arrive from a speech engine in start-time order. A Segmenter groups
// them into Paragraphs using a silence-gap threshold and a length threshold,
// never splitting a segment. Assemble renders paragraphs, chapter headings, and
// the not-yet-flushed tail into a Markdown document; it is cheap and
// idempotent so callers can re-render on every state change. ParseHeadings
// reads the line-oriented reply of a structuring call.
//
// Nothing in this package performs I/O or holds goroutines.
package transcript
