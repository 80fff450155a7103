// Package job holds ready-made step procedures for demo and load tasks.
package job

import (
	"context"
	"time"

	"cotask/internal/sched"
)

// Busy returns a step that burns work of CPU time per period, at most slice
// of it per resume. It keeps track of the remaining work between resumes and
// yields once the whole amount has been spent. A slice <= 0 does all the
// work in one resume.
func Busy(work, slice time.Duration) sched.StepFunc {
	remaining := work
	return func(ctx context.Context) (sched.Outcome, error) {
		step := remaining
		if slice > 0 && slice < step {
			step = slice
		}
		spin(step)
		remaining -= step

		if remaining > 0 {
			return sched.Continue, nil
		}
		remaining = work
		return sched.Yield, nil
	}
}

// spin busy-waits; sleeping would hand the CPU to nobody in a cooperative
// loop and hide the cost from the profiler.
func spin(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
