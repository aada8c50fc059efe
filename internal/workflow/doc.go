// Package workflow turns queued video URLs into documents.
//
// The Processor runs the two stages of a task: yt-dlp fetches the audio, then
// the transcription pipeline streams WhisperX segments into paragraph
// formatting and writes the document. The Manager polls the queue, runs one
// task at a time, keeps a heartbeat on the task in flight, persists live
// formatted/total progress through a throttled callback, and records stage
// timings and failure messages on the task.
//
// The CLI uses the Processor directly for foreground runs; the daemon uses
// the Manager.
package workflow
