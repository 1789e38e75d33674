// Package motion implements the single-value spring driver.
//
// A [Driver] owns one simulation state and advances it once per frame on a
// [frame.Scheduler] until the spring comes to rest. Callers retarget it with
// [Driver.Set] without losing velocity, observe it with [Driver.Subscribe]
// and [Driver.On], and await rest through [Driver.Finished].
//
// # Ownership
//
// A Driver holds no locks. It must only be used from the goroutine that runs
// its scheduler's callbacks. [Completion] is the one exception: it may be
// awaited from any goroutine.
//
// # Failure containment
//
// Control calls on a destroyed Driver are silent no-ops. A panicking
// subscriber or callback is recovered and logged; the remaining subscribers
// still run and the frame loop continues.
package motion
