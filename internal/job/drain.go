package job

import (
	"context"

	"cotask/internal/sched"
	"cotask/internal/share"
)

// Drain returns a consumer step that pops at most max elements per resume
// and hands each to fn. An empty queue is normal and simply yields. A max
// <= 0 drains everything currently queued.
func Drain[T any](q *share.Queue[T], max int, fn func(T)) sched.StepFunc {
	return func(ctx context.Context) (sched.Outcome, error) {
		for n := 0; max <= 0 || n < max; n++ {
			v, ok := q.Pop()
			if !ok {
				break
			}
			fn(v)
		}
		return sched.Yield, nil
	}
}
