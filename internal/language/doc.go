// Package language normalizes user-supplied transcription languages to the
// ISO 639-1 codes WhisperX expects.
package language
