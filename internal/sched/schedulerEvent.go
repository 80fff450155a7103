// internal/sched/schedulerEvent.go

package sched

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a Task.
type State int

const (
	Waiting State = iota // not yet due
	Ready                // due, not yet run this cycle
	Running              // between two of its own yield points
	Done                 // step procedure exhausted or faulted
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// TraceEntry records one state transition of a traced task.
type TraceEntry struct {
	Tick  Tick
	State State
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%8d: %s", e.Tick, e.State)
}

// Trace returns a copy of the recorded transitions.
func (t *Task) Trace() []TraceEntry {
	return append([]TraceEntry(nil), t.trace...)
}

// TraceDropped returns how many transitions were not recorded because the
// trace buffer was full.
func (t *Task) TraceDropped() int { return t.traceDropped }

// TraceString renders the trace one transition per line.
func (t *Task) TraceString() string {
	var b strings.Builder
	if t.traceCap == 0 {
		fmt.Fprintf(&b, "%s: no trace\n", t.name)
		return b.String()
	}
	fmt.Fprintf(&b, "%s trace (%d/%d", t.name, len(t.trace), t.traceCap)
	if t.traceDropped > 0 {
		fmt.Fprintf(&b, ", %d dropped", t.traceDropped)
	}
	b.WriteString("):\n")
	for _, e := range t.trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// record appends a transition unless the buffer is full. It never grows the
// buffer past the capacity chosen at registration.
func (t *Task) record(now Tick, s State) {
	if t.traceCap == 0 {
		return
	}
	if len(t.trace) == t.traceCap {
		t.traceDropped++
		return
	}
	t.trace = append(t.trace, TraceEntry{Tick: now, State: s})
}
