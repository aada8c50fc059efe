// Package pipeline turns a stream of recognized speech into a formatted,
// chaptered Markdown document.
//
// A single Run drives the segmenter from the speech source, hands each
// finished paragraph to a formatting pool without waiting for it, and keeps
// reassembling the document so an observer can watch it grow. After the source
// is exhausted the run drains outstanding work, makes one cooldown retry pass
// over paragraphs that failed, optionally asks the formatter for chapter
// headings, and writes the final document through the configured storage.
//
// Formatting failures degrade the affected paragraph to its raw text; only a
// failing speech source fails the run.
package pipeline
