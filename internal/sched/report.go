package sched

import (
	"fmt"
	"strings"
	"time"
)

// TaskStats is a snapshot of one task's diagnostics.
type TaskStats struct {
	Name     string
	Priority int
	Period   Tick
	State    State
	Runs     uint64
	Profiled bool
	Total    time.Duration
	Last     time.Duration
	Max      time.Duration
	MaxLate  Tick
	Err      error
}

// Average returns the mean execution time per run.
func (st TaskStats) Average() time.Duration {
	if st.Runs == 0 {
		return 0
	}
	return st.Total / time.Duration(st.Runs)
}

func (t *Task) stats() TaskStats {
	return TaskStats{
		Name:     t.name,
		Priority: t.priority,
		Period:   t.period,
		State:    t.state,
		Runs:     t.runs,
		Profiled: t.profile,
		Total:    t.totalTime,
		Last:     t.lastTime,
		Max:      t.maxTime,
		MaxLate:  t.maxLate,
		Err:      t.err,
	}
}

// Report snapshots every task in registration order.
func (s *Scheduler) Report() []TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStats, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.stats())
	}
	return out
}

// String renders the task table printed after the scheduler stops.
func (s *Scheduler) String() string {
	report := s.Report()

	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d passes, tick %d, mode %s\n", s.id, s.Passes(), s.clock.Now(), s.mode)
	fmt.Fprintf(&b, "%-16s%4s%8s%10s%12s%12s%12s%12s%10s  %s\n",
		"TASK", "PRI", "PERIOD", "RUNS", "TOTAL", "AVG", "LAST", "MAX", "MAX LATE", "STATE")
	for _, st := range report {
		period := "-"
		if st.Period > 0 {
			period = fmt.Sprint(int64(st.Period))
		}
		fmt.Fprintf(&b, "%-16s%4d%8s%10d", st.Name, st.Priority, period, st.Runs)
		if st.Profiled {
			fmt.Fprintf(&b, "%12s%12s%12s%12s%10d",
				fmtDuration(st.Total), fmtDuration(st.Average()), fmtDuration(st.Last), fmtDuration(st.Max), st.MaxLate)
		} else {
			fmt.Fprintf(&b, "%12s%12s%12s%12s%10s", "-", "-", "-", "-", "-")
		}
		fmt.Fprintf(&b, "  %s", st.State)
		if st.Err != nil {
			fmt.Fprintf(&b, " (%v)", st.Err)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
