package share_test

import (
	"slices"
	"sync"
	"testing"

	"cotask/internal/share"
)

func drain[T any](q *share.Queue[T]) []T {
	var out []T
	for {
		v, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestQueue_PushWhenFull(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts        []share.Option
		wantLast    bool
		wantDrained []int
		wantDropped uint64
	}{
		"overwrite disabled rejects the extra push": {
			wantLast:    false,
			wantDrained: []int{1, 2, 3, 4},
		},
		"overwrite enabled evicts the oldest": {
			opts:        []share.Option{share.Overwrite()},
			wantLast:    true,
			wantDrained: []int{2, 3, 4, 5},
			wantDropped: 1,
		},
		"protected overwrite behaves the same": {
			opts:        []share.Option{share.Overwrite(), share.Protected()},
			wantLast:    true,
			wantDrained: []int{2, 3, 4, 5},
			wantDropped: 1,
		},
	}
	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			q := share.NewQueue[int]("q", 4, tt.opts...)
			for i := 1; i <= 4; i++ {
				if !q.Push(i) {
					t.Fatalf("push %d failed on a non-full queue", i)
				}
			}
			if !q.Full() {
				t.Fatal("expected queue to be full")
			}
			if got := q.Push(5); got != tt.wantLast {
				t.Errorf("push on full queue = %v, want %v", got, tt.wantLast)
			}
			if got := q.Len(); got != 4 {
				t.Errorf("len = %d, want 4", got)
			}
			if got := q.Dropped(); got != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", got, tt.wantDropped)
			}

			got := drain(q)
			if !slices.Equal(got, tt.wantDrained) {
				t.Errorf("mismatch:\n  got:  %v\n  want: %v", got, tt.wantDrained)
			}
		})
	}
}

func TestQueue_SixteenOfTwenty(t *testing.T) {
	t.Parallel()

	q := share.NewQueue[uint32]("Queue 0", 16)

	var accepted []uint32
	for i := uint32(1); i <= 20; i++ {
		if q.Push(i) {
			accepted = append(accepted, i)
		}
	}

	want := make([]uint32, 16)
	for i := range want {
		want[i] = uint32(i + 1)
	}
	if !slices.Equal(accepted, want) {
		t.Fatalf("accepted pushes mismatch:\n  got:  %v\n  want: %v", accepted, want)
	}
	if got := drain(q); !slices.Equal(got, want) {
		t.Errorf("popped mismatch:\n  got:  %v\n  want: %v", got, want)
	}
	if got := q.MaxLen(); got != 16 {
		t.Errorf("max len = %d, want 16", got)
	}
}

func TestQueue_FIFOAcrossWrap(t *testing.T) {
	t.Parallel()

	q := share.NewQueue[int]("q", 3)
	var got []int
	next := 0
	// Interleave pushes and pops so head walks around the ring several times.
	for round := 0; round < 10; round++ {
		for i := 0; i < 2; i++ {
			if !q.Push(next) {
				t.Fatalf("round %d: push %d rejected", round, next)
			}
			next++
		}
		for i := 0; i < 2; i++ {
			v, ok := q.Pop()
			if !ok {
				t.Fatalf("round %d: unexpected empty queue", round)
			}
			got = append(got, v)
		}
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("element %d = %d, want %d (got %v)", i, v, i, got)
		}
	}
}

func TestQueue_EmptyObservers(t *testing.T) {
	t.Parallel()

	q := share.NewQueue[string]("q", 2)
	if !q.Empty() || q.Full() {
		t.Fatalf("new queue: empty=%v full=%v", q.Empty(), q.Full())
	}
	if v, ok := q.Pop(); ok || v != "" {
		t.Errorf("pop on empty = (%q, %v), want zero and false", v, ok)
	}
	if _, ok := q.Peek(); ok {
		t.Error("peek on empty queue reported a value")
	}

	q.Push("a")
	q.Push("b")
	if v, ok := q.Peek(); !ok || v != "a" {
		t.Errorf("peek = (%q, %v), want (a, true)", v, ok)
	}
	if got := q.Len(); got != 2 {
		t.Errorf("peek changed len to %d", got)
	}

	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after Clear")
	}
	if got := q.MaxLen(); got != 2 {
		t.Errorf("max len after Clear = %d, want 2", got)
	}
}

func TestQueue_NonPositiveCapacityPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	share.NewQueue[int]("bad", 0)
}

func TestQueue_ProtectedConcurrentProducer(t *testing.T) {
	t.Parallel()

	const n = 5000
	q := share.NewQueue[int]("isr", 8, share.Protected())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if q.Push(i) {
				i++
			}
		}
	}()

	want := 0
	for want < n {
		v, ok := q.Pop()
		if !ok {
			continue
		}
		if v != want {
			t.Fatalf("popped %d, want %d", v, want)
		}
		want++
	}
	wg.Wait()
}

func TestQueue_CustomGuard(t *testing.T) {
	t.Parallel()

	var disabled, restored int
	g := share.GuardFuncs{
		DisableFunc: func() share.IRQState { disabled++; return 7 },
		RestoreFunc: func(s share.IRQState) {
			if s != 7 {
				t.Errorf("restore got state %d, want 7", s)
			}
			restored++
		},
	}

	q := share.NewQueue[int]("q", 2, share.WithGuard(g))
	q.Push(1)
	q.Pop()

	if disabled != 2 || restored != 2 {
		t.Errorf("disable/restore = %d/%d, want 2/2", disabled, restored)
	}
	if !q.Protected() {
		t.Error("WithGuard should mark the queue protected")
	}
}
