// Package services defines shared utilities consumed by the workflow stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper.
//   - RemoteCallError, the typed failure returned by remote collaborators so
//     retry policy can tell network and timeout failures apart from the rest
//     without parsing messages.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
