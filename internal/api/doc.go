// Package api defines the wire-format types served by the daemon HTTP API and
// printed by the CLI. It translates queue tasks into transport-friendly DTOs
// so clients never see server-side paths such as the downloaded audio file.
//
// QueueService wraps a queue store and returns DTOs; the daemon mounts it on
// its routes and the CLI uses it for local queue inspection.
//
// Timestamps use RFC3339 with milliseconds. Task status is exposed as the
// lowercase queue status string.
package api
