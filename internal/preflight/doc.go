// Package preflight provides readiness checks for the external services,
// binaries and filesystem paths yt2text depends on.
//
// The CLI "yt2text status" command prints every result, and "yt2text run"
// refuses to start when a required binary or directory check fails. Free
// space below 1 GiB is reported as a warning rather than a failure.
package preflight
