// internal/sched/scheduler.go

package sched

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/google/uuid"

	"cotask/internal/logging"
)

// Scheduler owns a registry of cooperative tasks and resumes one READY task
// per pass. Only one task is ever RUNNING.
type Scheduler struct {
	mu          sync.Mutex         // protects the registry and every task's dispatch state
	id          uuid.UUID          // run id, shows up in logs and reports
	clock       Clock              // logical time source
	ownedClock  *TickClock         // started by New, stopped by Close
	mode        Mode               // priority or round-robin selection
	tieBreak    TieBreak           // same-priority ordering
	traceDepth  int                // default trace capacity
	tasks       []*Task            // append-only, registration order
	ready       *redblacktree.Tree // READY tasks ordered by readyKey
	running     *Task              // nil between steps
	dispatching bool               // true while a step runs with mu released
	idle        chan struct{}      // closed when the current step returns
	seq         int64              // dispatch sequence number
	passes      uint64             // completed passes
	rrCursor    int                // registry index of the last task run in round-robin mode

	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// New creates a new Scheduler with the given configuration.
func New(cfg Config, opts ...Option) *Scheduler {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg.applyDefaults()
	invalid := cfg.Validate()
	mode, _ := ParseMode(cfg.Mode)
	tieBreak, _ := ParseTieBreak(cfg.TieBreak)

	s := &Scheduler{
		id:         uuid.New(),
		clock:      o.Clock,
		mode:       mode,
		tieBreak:   tieBreak,
		traceDepth: cfg.TraceDepth,
		rrCursor:   -1,
		observer:   o.Observer,
		logger:     o.Logger,
		now:        o.Now,
	}
	if s.clock == nil {
		clock := NewTickClock(1)
		clock.Start(cfg.TickDuration())
		s.clock, s.ownedClock = clock, clock
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("component", "scheduler", "run_id", s.id.String())
	if invalid != nil {
		s.logger.Warn("invalid scheduler config, falling back",
			"error", invalid,
			"mode", mode.String(),
			"tie_break", tieBreak.String())
	}
	if s.now == nil {
		s.now = time.Now
	}

	order := byPriorityThenLastRun
	if tieBreak == TieRegistration {
		order = byPriorityThenIndex
	}
	s.ready = redblacktree.NewWith(order)
	return s
}

// ID returns the run id assigned by New.
func (s *Scheduler) ID() uuid.UUID { return s.id }

// Clock returns the scheduler's tick source.
func (s *Scheduler) Clock() Clock { return s.clock }

// Close stops the tick clock started by New, if any. The registry and its
// diagnostics stay readable.
func (s *Scheduler) Close() {
	if s.ownedClock != nil {
		s.ownedClock.Stop()
	}
}

// dispatchKey marks the context a step is resumed with.
type dispatchKey struct{}

// Register appends a task to the registry. The task first becomes due at the
// current tick. Called from another goroutine while a step is executing, it
// waits for the pass to finish. A step must not call Register: it would wait
// on itself. Steps use RegisterContext with their own context instead.
func (s *Scheduler) Register(t *Task) error {
	return s.RegisterContext(context.Background(), t)
}

// RegisterContext is Register with a bound on the wait for a running step.
// Given the context a step was resumed with, it fails with ErrDispatching
// since tasks are only added between passes.
func (s *Scheduler) RegisterContext(ctx context.Context, t *Task) error {
	if t == nil {
		return ErrNilTask
	}
	if owner, _ := ctx.Value(dispatchKey{}).(*Scheduler); owner == s {
		return fmt.Errorf("register %q: %w", t.name, ErrDispatching)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.dispatching {
		idle := s.idle
		s.mu.Unlock()
		select {
		case <-idle:
			s.mu.Lock()
		case <-ctx.Done():
			s.mu.Lock()
			return fmt.Errorf("register %q: %w", t.name, ctx.Err())
		}
	}
	if t.owner != nil {
		return fmt.Errorf("register %q: %w", t.name, ErrDuplicateTask)
	}
	for _, other := range s.tasks {
		if other.name == t.name {
			return fmt.Errorf("register %q: %w", t.name, ErrDuplicateTask)
		}
	}

	t.owner = s
	t.index = len(s.tasks)
	t.lastRun = -1
	t.nextDue = s.clock.Now()
	if t.traceReq >= 0 {
		t.traceCap = t.traceReq
		if t.traceCap == 0 {
			t.traceCap = s.traceDepth
		}
		t.trace = make([]TraceEntry, 0, t.traceCap)
	}
	s.tasks = append(s.tasks, t)

	s.logger.Debug("task registered",
		"task", t.name,
		"priority", t.priority,
		"period", int64(t.period),
		"profile", t.profile,
		"trace", t.traceCap)
	return nil
}

// Tasks returns the registry in registration order.
func (s *Scheduler) Tasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Task(nil), s.tasks...)
}

// Running returns the task currently between its yield points, or nil.
func (s *Scheduler) Running() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Passes returns the number of completed dispatch passes.
func (s *Scheduler) Passes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// RunOnce performs one dispatch pass: it promotes every due WAITING task to
// READY and resumes at most one READY task. It returns the task it resumed,
// or nil if none was ready. A faulting task is marked DONE and does not make
// RunOnce fail; the only error returned is ctx's.
func (s *Scheduler) RunOnce(ctx context.Context) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, t := range s.tasks {
		if t.state == Waiting && now >= t.nextDue {
			s.makeReady(t, now)
		}
	}

	t := s.pick()
	if t != nil {
		s.dispatch(ctx, t, now)
	}

	s.passes++
	if s.observer != nil {
		s.observer.OnPass(now)
	}
	return t, nil
}

// RunForever calls RunOnce until ctx is cancelled. Cancellation is only
// observed between passes, so a running step always completes. When a pass
// finds nothing to run and the clock is a Waiter, the loop parks until the
// next tick.
func (s *Scheduler) RunForever(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"tasks", len(s.Tasks()),
		"mode", s.mode.String(),
		"tie_break", s.tieBreak.String())

	err := s.loop(ctx)

	s.logger.Info("scheduler stopped",
		"passes", s.Passes(),
		"tick", int64(s.clock.Now()),
		"reason", err)
	return err
}

func (s *Scheduler) loop(ctx context.Context) error {
	waiter, _ := s.clock.(Waiter)
	for {
		t, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}
		if t != nil || waiter == nil {
			continue
		}
		if err := waiter.Wait(ctx); err != nil {
			return err
		}
	}
}

func (s *Scheduler) makeReady(t *Task, now Tick) {
	t.state = Ready
	t.record(now, Ready)
	t.key = readyKey{priority: t.priority, lastRun: t.lastRun, index: t.index}
	s.ready.Put(t.key, t)
}

// pick chooses the READY task to resume. Callers hold mu.
func (s *Scheduler) pick() *Task {
	if s.ready.Empty() {
		return nil
	}
	if s.mode == ModeRoundRobin {
		n := len(s.tasks)
		for i := 1; i <= n; i++ {
			t := s.tasks[(s.rrCursor+i)%n]
			if t.state == Ready {
				return t
			}
		}
		return nil
	}
	return s.ready.Left().Value.(*Task)
}

// dispatch resumes t with mu released so the step may inspect the scheduler,
// then applies the resulting transition. Callers hold mu.
func (s *Scheduler) dispatch(ctx context.Context, t *Task, now Tick) {
	s.ready.Remove(t.key)
	s.seq++
	t.lastRun = s.seq
	s.rrCursor = t.index

	// Lateness counts once per period, on the resume that starts it.
	late := Tick(0)
	first := !t.started
	if first {
		t.started = true
		if t.period > 0 && now > t.nextDue {
			late = now - t.nextDue
		}
	}

	t.state = Running
	t.record(now, Running)
	s.running = t
	s.dispatching = true
	s.idle = make(chan struct{})
	s.mu.Unlock()

	var start time.Time
	if t.profile {
		start = s.now()
	}
	out, err := t.resume(context.WithValue(ctx, dispatchKey{}, s))
	var elapsed time.Duration
	if t.profile {
		elapsed = s.now().Sub(start)
	}

	s.mu.Lock()
	s.dispatching = false
	close(s.idle)
	s.running = nil
	t.observe(elapsed, late)
	if out == Yield {
		t.started = false
	}

	end := s.clock.Now()
	switch {
	case err != nil:
		t.err = err
		t.state = Done
		t.record(end, Done)
		s.logger.Error("task faulted, no longer scheduled", "task", t.name, "error", err)
		if s.observer != nil {
			s.observer.OnFault(t.name, err)
		}
	case out == Finish:
		t.state = Done
		t.record(end, Done)
		s.logger.Info("task finished", "task", t.name, "runs", t.runs)
	case out == Yield && t.period > 0:
		t.nextDue += t.period
		t.state = Waiting
		t.record(end, Waiting)
	default:
		// Continue, or Yield without a period: eligible again next pass.
		s.makeReady(t, end)
	}

	if s.observer != nil {
		s.observer.OnRun(RunInfo{
			Task:     t.name,
			Priority: t.priority,
			Outcome:  out,
			State:    t.state,
			Duration: elapsed,
			Late:     late,
			First:    first,
		})
	}
}

// readyKey is used as a key in the red-black tree.
type readyKey struct {
	priority int
	lastRun  int64
	index    int
}

// byPriorityThenLastRun rotates fairly among equal priorities: the task that
// ran least recently comes first.
func byPriorityThenLastRun(a, b any) int {
	ka, kb := a.(readyKey), b.(readyKey)
	switch {
	case ka.priority != kb.priority:
		return cmp.Compare(ka.priority, kb.priority)
	case ka.lastRun != kb.lastRun:
		return cmp.Compare(ka.lastRun, kb.lastRun)
	default:
		return cmp.Compare(ka.index, kb.index)
	}
}

// byPriorityThenIndex always prefers the earliest registered task.
func byPriorityThenIndex(a, b any) int {
	ka, kb := a.(readyKey), b.(readyKey)
	if ka.priority != kb.priority {
		return cmp.Compare(ka.priority, kb.priority)
	}
	return cmp.Compare(ka.index, kb.index)
}
