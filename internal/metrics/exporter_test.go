package metrics

import (
	"context"
	"errors"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cotask/internal/sched"
	"cotask/internal/share"
)

func TestExporter_ObservesScheduler(t *testing.T) {
	reg := prom.NewRegistry()
	shares := share.NewRegistry()
	q := share.NewQueue[int]("Queue 0", 2)
	shares.Add(q)

	exporter, err := NewExporter("cotask", reg, shares)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	clk := sched.NewManualClock(0)
	s := sched.New(sched.DefaultConfig(), sched.WithClock(clk), sched.WithObserver(exporter))
	defer s.Close()

	producer := sched.NewTask("producer", 1, func(ctx context.Context) (sched.Outcome, error) {
		q.Push(1)
		return sched.Yield, nil
	}, sched.WithPeriod(2), sched.WithProfile())
	broken := sched.NewTask("broken", 2, func(ctx context.Context) (sched.Outcome, error) {
		return sched.Yield, errors.New("encoder unplugged")
	})
	for _, task := range []*sched.Task{producer, broken} {
		if err := s.Register(task); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := s.RunOnce(ctx); err != nil {
			t.Fatal(err)
		}
		clk.Advance(1)
	}

	if got := testutil.ToFloat64(exporter.passesTotal); got != 10 {
		t.Errorf("passes = %v, want 10", got)
	}
	if got := testutil.ToFloat64(exporter.tick); got != 9 {
		t.Errorf("tick = %v, want 9", got)
	}
	if got := testutil.ToFloat64(exporter.runsTotal.WithLabelValues("producer")); got != 5 {
		t.Errorf("producer runs = %v, want 5", got)
	}
	if got := testutil.ToFloat64(exporter.faultsTotal.WithLabelValues("broken")); got != 1 {
		t.Errorf("broken faults = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.queueDepth.WithLabelValues("Queue 0")); got != 2 {
		t.Errorf("queue depth = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.queueDropped.WithLabelValues("Queue 0")); got != 0 {
		t.Errorf("queue dropped = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(exporter.runsTotal); n != 2 {
		t.Errorf("runs series = %d, want 2", n)
	}
}

func TestExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewExporter("cotask", reg, nil)
	if err != nil {
		t.Fatalf("first NewExporter failed: %v", err)
	}
	second, err := NewExporter("cotask", reg, nil)
	if err != nil {
		t.Fatalf("second NewExporter failed: %v", err)
	}

	first.OnFault("Task_1", nil)
	second.OnFault("Task_1", nil)

	if got := testutil.ToFloat64(first.faultsTotal.WithLabelValues("Task_1")); got != 2 {
		t.Fatalf("shared fault counter = %v, want 2", got)
	}
}

func TestExporter_NilIsNoop(t *testing.T) {
	var e *Exporter
	e.OnRun(sched.RunInfo{Task: "x"})
	e.OnFault("x", nil)
	e.OnPass(1)
}

func TestExporter_LateTicksSetOncePerPeriod(t *testing.T) {
	exporter, err := NewExporter("cotask", prom.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}

	exporter.OnRun(sched.RunInfo{Task: "slicer", Outcome: sched.Continue, Late: 3, First: true})
	exporter.OnRun(sched.RunInfo{Task: "slicer", Outcome: sched.Continue})
	exporter.OnRun(sched.RunInfo{Task: "slicer", Outcome: sched.Yield})

	if got := testutil.ToFloat64(exporter.lateTicks.WithLabelValues("slicer")); got != 3 {
		t.Errorf("late ticks = %v, want 3", got)
	}
	if got := testutil.ToFloat64(exporter.runsTotal.WithLabelValues("slicer")); got != 3 {
		t.Errorf("runs = %v, want 3", got)
	}
}
