// internal/sched/tickclock.go

package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Clock reports the current logical tick.
type Clock interface {
	Now() Tick
}

// Waiter is implemented by clocks that can park an idle dispatch loop until
// the next tick.
type Waiter interface {
	Wait(ctx context.Context) error
}

// TickClock emits ticks and counts them atomically.
type TickClock struct {
	Ch    chan struct{}
	count atomic.Int64
	stop  chan struct{}
	once  sync.Once
}

// NewTickClock creates a clock but does not start it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.count.Add(1)
				// A slow consumer only misses wake-ups, never ticks.
				select {
				case c.Ch <- struct{}{}:
				default:
				}
			case <-c.stop:
				close(c.Ch)
				return
			}
		}
	}()
}

// Stop signals the clock to stop emitting ticks. It is safe to call twice.
func (c *TickClock) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Now returns the number of ticks emitted so far.
func (c *TickClock) Now() Tick {
	return Tick(c.count.Load())
}

// Wait blocks until the next tick is emitted or ctx is done.
func (c *TickClock) Wait(ctx context.Context) error {
	select {
	case _, ok := <-c.Ch:
		if !ok {
			return ErrClockStopped
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManualClock is a Clock driven by the caller. Wait advances it by one tick
// so an idle RunForever still makes progress in simulated time.
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock returns a clock reading start.
func NewManualClock(start Tick) *ManualClock {
	c := &ManualClock{}
	c.now.Store(int64(start))
	return c
}

func (c *ManualClock) Now() Tick { return Tick(c.now.Load()) }

// Advance moves the clock forward by n ticks.
func (c *ManualClock) Advance(n Tick) Tick {
	return Tick(c.now.Add(int64(n)))
}

// Set jumps the clock to t.
func (c *ManualClock) Set(t Tick) { c.now.Store(int64(t)) }

func (c *ManualClock) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(1)
	return nil
}
