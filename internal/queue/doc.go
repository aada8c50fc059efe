// Package queue persists submitted transcription tasks in SQLite and exposes
// helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats queries,
// heartbeat tracking, stuck-task recovery, and the queued, downloading,
// transcribing, done and failed statuses. Tasks carry the live document and
// formatted/total counters so the API can show progress while a run is in
// flight.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
