package sched

import (
	"context"
	"fmt"
)

// Outcome tells the scheduler what a step procedure did when it returned.
type Outcome int

const (
	// Yield finishes one unit of work; the task sleeps until its next due tick.
	Yield Outcome = iota
	// Continue hands control back with work still pending. The task stays
	// READY and its period is not consumed.
	Continue
	// Finish ends the step procedure for good.
	Finish
)

func (o Outcome) String() string {
	switch o {
	case Yield:
		return "yield"
	case Continue:
		return "continue"
	case Finish:
		return "finish"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// StepFunc resumes a task from its last suspension point and runs it to the
// next one. It must return promptly: nothing preempts it.
type StepFunc func(ctx context.Context) (Outcome, error)

// Handler runs the code of one execution point of a Machine and names the
// execution point to resume from next time.
type Handler[S comparable] func(ctx context.Context) (next S, out Outcome, err error)

// Machine turns an explicit set of execution points into a StepFunc. Every
// suspension is a return from a Handler, so the resume point is always the
// machine's current state.
type Machine[S comparable] struct {
	state    S
	handlers map[S]Handler[S]
}

// NewMachine creates a Machine that starts at initial.
func NewMachine[S comparable](initial S, handlers map[S]Handler[S]) *Machine[S] {
	return &Machine[S]{state: initial, handlers: handlers}
}

// State returns the execution point the next Step resumes from.
func (m *Machine[S]) State() S { return m.state }

// Step runs the handler of the current execution point. A state without a
// handler is a fault.
func (m *Machine[S]) Step(ctx context.Context) (Outcome, error) {
	h, ok := m.handlers[m.state]
	if !ok {
		return Finish, fmt.Errorf("%w: %v", ErrUnknownState, m.state)
	}
	next, out, err := h(ctx)
	if err != nil {
		return out, err
	}
	m.state = next
	return out, nil
}
