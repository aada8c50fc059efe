// Package formatting runs paragraph cleanup calls against a remote text
// formatter with bounded concurrency.
//
// Submit never blocks the caller: work beyond the configured number of
// workers waits in an unbounded FIFO queue. Each unit is retried according to
// a policy that waits longer after network-class failures than after other
// failures, and exhaustion resolves the unit's handle to a failure instead of
// stopping the pool. Callers observe results through Poll, which never
// blocks, and Notify, which signals that at least one result is ready.
package formatting
