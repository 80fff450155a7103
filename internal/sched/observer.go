package sched

import "time"

// RunInfo describes one completed RUNNING interval.
type RunInfo struct {
	Task     string
	Priority int
	Outcome  Outcome
	State    State         // state the task was left in
	Duration time.Duration // zero unless the task is profiled
	Late     Tick          // ticks between due and the start of this period's work
	First    bool          // first resume of the period, the one Late is measured on
}

// Observer defines hooks for monitoring dispatch. All calls are made from the
// dispatch goroutine between steps, so implementations must not call back
// into the Scheduler.
type Observer interface {
	OnRun(info RunInfo)
	OnFault(task string, err error)
	OnPass(now Tick)
}
