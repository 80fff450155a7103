package share

import (
	"fmt"
	"reflect"
)

// Queue is a fixed-capacity FIFO ring. Its storage is allocated once in
// NewQueue and never grows.
type Queue[T any] struct {
	name      string
	overwrite bool
	guard     Guard // nil when unprotected

	buf   []T
	head  int
	count int

	maxLen  int    // high-water mark
	dropped uint64 // elements evicted by overwrite
}

// QueueStats is a point-in-time view of a Queue's occupancy.
type QueueStats struct {
	Name      string
	Len       int
	Cap       int
	MaxLen    int
	Dropped   uint64
	Protected bool
	Overwrite bool
}

// NewQueue creates a queue that holds at most capacity elements. It panics if
// capacity is not positive, like make does for a negative length.
func NewQueue[T any](name string, capacity int, opts ...Option) *Queue[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("share: queue %q capacity must be positive, got %d", name, capacity))
	}
	o := buildOptions(opts)
	return &Queue[T]{
		name:      name,
		overwrite: o.overwrite,
		guard:     o.guard,
		buf:       make([]T, capacity),
	}
}

func (q *Queue[T]) enter() IRQState {
	if q.guard == nil {
		return 0
	}
	return q.guard.Disable()
}

func (q *Queue[T]) exit(s IRQState) {
	if q.guard != nil {
		q.guard.Restore(s)
	}
}

// Push appends v. When the queue is full it either evicts the oldest element
// (overwrite enabled) or returns false and leaves the queue untouched.
func (q *Queue[T]) Push(v T) bool {
	s := q.enter()
	defer q.exit(s)

	if q.count == len(q.buf) {
		if !q.overwrite {
			return false
		}
		q.dropHead()
		q.dropped++
	}
	q.buf[(q.head+q.count)%len(q.buf)] = v
	q.count++
	if q.count > q.maxLen {
		q.maxLen = q.count
	}
	return true
}

// Pop removes and returns the oldest element. ok is false when the queue is
// empty; callers are expected to poll.
func (q *Queue[T]) Pop() (v T, ok bool) {
	s := q.enter()
	defer q.exit(s)

	if q.count == 0 {
		return v, false
	}
	v = q.buf[q.head]
	q.dropHead()
	return v, true
}

// Peek returns the oldest element without removing it.
func (q *Queue[T]) Peek() (v T, ok bool) {
	s := q.enter()
	defer q.exit(s)

	if q.count == 0 {
		return v, false
	}
	return q.buf[q.head], true
}

// dropHead discards the oldest element. Callers hold the guard.
func (q *Queue[T]) dropHead() {
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
}

// Clear discards every element. The high-water mark and drop counter survive.
func (q *Queue[T]) Clear() {
	s := q.enter()
	defer q.exit(s)

	for q.count > 0 {
		q.dropHead()
	}
	q.head = 0
}

func (q *Queue[T]) Len() int {
	s := q.enter()
	defer q.exit(s)
	return q.count
}

func (q *Queue[T]) Cap() int { return len(q.buf) }

func (q *Queue[T]) Empty() bool { return q.Len() == 0 }

func (q *Queue[T]) Full() bool { return q.Len() == len(q.buf) }

// MaxLen returns the largest number of elements the queue has ever held.
func (q *Queue[T]) MaxLen() int {
	s := q.enter()
	defer q.exit(s)
	return q.maxLen
}

// Dropped returns how many elements overwrite has evicted.
func (q *Queue[T]) Dropped() uint64 {
	s := q.enter()
	defer q.exit(s)
	return q.dropped
}

func (q *Queue[T]) Name() string    { return q.name }
func (q *Queue[T]) Protected() bool { return q.guard != nil }

// Kind reports the element type, e.g. "queue[uint32]".
func (q *Queue[T]) Kind() string {
	return "queue[" + reflect.TypeOf((*T)(nil)).Elem().String() + "]"
}

// Stats snapshots the queue inside a single critical section.
func (q *Queue[T]) Stats() QueueStats {
	s := q.enter()
	defer q.exit(s)
	return QueueStats{
		Name:      q.name,
		Len:       q.count,
		Cap:       len(q.buf),
		MaxLen:    q.maxLen,
		Dropped:   q.dropped,
		Protected: q.guard != nil,
		Overwrite: q.overwrite,
	}
}

// Describe renders occupancy for diagnostics.
func (q *Queue[T]) Describe() string {
	st := q.Stats()
	return fmt.Sprintf("len=%d/%d max=%d dropped=%d", st.Len, st.Cap, st.MaxLen, st.Dropped)
}

func (q *Queue[T]) String() string {
	return fmt.Sprintf("%s %s %s", q.name, q.Kind(), q.Describe())
}
