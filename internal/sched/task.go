package sched

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Tick is one unit of logical scheduler time.
type Tick int64

const (
	MinPriority = 0
	MaxPriority = 255
)

// Task is a named, resumable unit of work. It is created by the host, handed
// to a Scheduler once and owned by that scheduler from then on.
type Task struct {
	name     string
	priority int      // lower number runs first
	period   Tick     // 0 means eligible on every pass
	step     StepFunc // resumed once per dispatch
	profile  bool
	traceReq int // requested trace depth, <0 when tracing is off
	traceCap int
	trace    []TraceEntry

	// Dispatch state, only touched by the owning scheduler.
	index        int // registration order
	state        State
	nextDue      Tick
	lastRun      int64 // dispatch sequence number, -1 before the first run
	started      bool  // resumed since the last Yield
	key          readyKey
	err          error
	traceDropped int
	owner        *Scheduler

	// Profiling.
	runs      uint64
	totalTime time.Duration
	lastTime  time.Duration
	maxTime   time.Duration
	maxLate   Tick
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithPeriod makes the task periodic: after each Yield it sleeps until
// exactly period ticks after its previous due tick.
func WithPeriod(period Tick) TaskOption {
	return func(t *Task) {
		if period < 0 {
			period = 0
		}
		t.period = period
	}
}

// WithProfile enables execution-time and lateness measurement.
func WithProfile() TaskOption {
	return func(t *Task) {
		t.profile = true
	}
}

// WithTrace records up to depth state transitions. A depth of zero uses the
// scheduler's configured trace depth; a negative depth leaves tracing off.
func WithTrace(depth int) TaskOption {
	return func(t *Task) {
		if depth < 0 {
			depth = -1
		}
		t.traceReq = depth
	}
}

// NewTask creates a task in the WAITING state.
func NewTask(name string, priority int, step StepFunc, opts ...TaskOption) *Task {
	// clamp priority within the legal region.
	if priority < MinPriority {
		priority = MinPriority
	} else if priority > MaxPriority {
		priority = MaxPriority
	}

	t := &Task{
		name:     name,
		priority: priority,
		step:     step,
		traceReq: -1,
		state:    Waiting,
		lastRun:  -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task) Name() string  { return t.name }
func (t *Task) Priority() int { return t.priority }
func (t *Task) Period() Tick  { return t.period }
func (t *Task) State() State  { return t.state }

// NextDue returns the tick at which a WAITING task becomes READY.
func (t *Task) NextDue() Tick { return t.nextDue }

// Runs returns how many times the task has been resumed.
func (t *Task) Runs() uint64 { return t.runs }

// Err returns the fault that ended the task, if any.
func (t *Task) Err() error { return t.err }

func (t *Task) String() string {
	return fmt.Sprintf("%s(pri=%d period=%d %s)", t.name, t.priority, t.period, t.state)
}

// resume runs the step procedure once, turning panics and errors into a
// *FaultError.
func (t *Task) resume(ctx context.Context) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = fmt.Errorf("panic: %v", r)
			}
			out, err = Finish, &FaultError{Task: t.name, Err: perr, Panic: r}
		}
	}()

	out, err = t.step(ctx)
	if err != nil {
		var fe *FaultError
		if !errors.As(err, &fe) {
			err = &FaultError{Task: t.name, Err: err}
		}
	}
	return out, err
}

// observe folds one RUNNING interval into the profile.
func (t *Task) observe(d time.Duration, late Tick) {
	t.runs++
	if !t.profile {
		return
	}
	t.lastTime = d
	t.totalTime += d
	if d > t.maxTime {
		t.maxTime = d
	}
	if late > t.maxLate {
		t.maxLate = late
	}
}
