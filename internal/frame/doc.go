// Package frame provides the "request next display frame" primitive that
// every animated value is advanced from.
//
// A [Scheduler] hands out [Handle] tokens for frame callbacks and plain
// timers. Callbacks never run concurrently with each other: [Manual] runs
// them on the goroutine that calls [Manual.Step], [Loop] runs them on its
// own goroutine. Anything owned by a scheduler's callbacks must only be
// touched from that goroutine; use [Loop.Do] or [Loop.Call] to get there.
package frame
