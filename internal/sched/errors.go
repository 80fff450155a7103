package sched

import (
	"errors"
	"fmt"
)

var (
	ErrNilTask       = errors.New("nil task")
	ErrDuplicateTask = errors.New("task already registered")
	ErrDispatching   = errors.New("scheduler is dispatching a task")
	ErrUnknownState  = errors.New("no handler for execution point")
	ErrInvalidConfig = errors.New("invalid scheduler config")
	ErrClockStopped  = errors.New("tick clock stopped")
)

// FaultError is recorded on a task whose step procedure returned an error or
// panicked. The task is DONE afterwards.
type FaultError struct {
	Task  string
	Err   error
	Panic any // recovered value, nil for returned errors
}

func (e *FaultError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("task %q panicked: %v", e.Task, e.Panic)
	}
	return fmt.Sprintf("task %q faulted: %v", e.Task, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }
