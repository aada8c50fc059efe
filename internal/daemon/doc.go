// Package daemon coordinates the long-running yt2text process.
//
// It wires configuration, queue storage, the workflow manager and the HTTP
// API into a single lifecycle with flock-based locking so only one process
// drives WhisperX at a time. The API accepts submissions from scripts and
// browser extensions, reports task progress and serves finished documents.
//
// Keep orchestration logic here: individual workflow steps live in their
// respective packages while the daemon focuses on startup, shutdown, and
// request routing.
package daemon
