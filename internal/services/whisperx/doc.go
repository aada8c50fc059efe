// Package whisperx drives the WhisperX speech engine through uvx and exposes
// it as a stream of timed transcript segments.
//
// Service.Transcribe runs the engine with verbose output and yields one
// segment per "[start --> end] text" line as soon as it is printed, so the
// formatting stage can start before recognition finishes. If the engine
// prints no usable lines, the JSON document it writes is read instead.
// FileSource replays such a document without running the engine.
//
// Service.ExtractAudio converts arbitrary input to mono 16 kHz WAV through
// ffmpeg. Configuration options (model, CUDA, VAD method) are passed via
// Config.
package whisperx
