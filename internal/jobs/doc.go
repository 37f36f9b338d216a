// Package jobs runs exports and imports off the caller's goroutine.
//
// A Task wraps one orchestrator call and moves through
// Idle → Running → Completed exactly once. Its Listener is notified exactly
// once, after the task is Completed and its result is visible through Err
// and Summary. Once started, a task ignores cancellation of the caller's
// context so that an open transaction is never interrupted.
//
// Worker is the single execution slot: tasks submitted to it run one at a
// time in submission order.
package jobs
