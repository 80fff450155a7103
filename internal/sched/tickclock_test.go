package sched_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cotask/internal/sched"
)

func TestTickClock_WaitAndStop(t *testing.T) {
	t.Parallel()

	c := sched.NewTickClock(1)
	c.Start(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := c.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if c.Now() < 1 {
		t.Errorf("now = %d after three waits", c.Now())
	}

	c.Stop()
	c.Stop()
	for {
		err := c.Wait(ctx)
		if errors.Is(err, sched.ErrClockStopped) {
			break
		}
		if err != nil {
			t.Fatalf("wait after stop: %v", err)
		}
	}
}

func TestTickClock_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	c := sched.NewTickClock(1) // never started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestManualClock(t *testing.T) {
	t.Parallel()

	c := sched.NewManualClock(10)
	if got := c.Advance(5); got != 15 {
		t.Errorf("advance = %d, want 15", got)
	}
	if err := c.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.Now(); got != 16 {
		t.Errorf("now = %d, want 16", got)
	}
	c.Set(3)
	if got := c.Now(); got != 3 {
		t.Errorf("now = %d, want 3", got)
	}
}

func TestScheduler_DefaultTickClock(t *testing.T) {
	t.Parallel()

	cfg := sched.DefaultConfig()
	s := sched.New(cfg)
	defer s.Close()

	runs := 0
	if err := s.Register(sched.NewTask("tick", 1, func(ctx context.Context) (sched.Outcome, error) {
		runs++
		return sched.Yield, nil
	}, sched.WithPeriod(2))); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := s.RunForever(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RunForever err = %v", err)
	}
	if runs == 0 {
		t.Error("task never ran on the wall-clock tick source")
	}
}
