package share_test

import (
	"strings"
	"sync"
	"testing"

	"cotask/internal/share"
)

func TestShare_GetPut(t *testing.T) {
	t.Parallel()

	tests := map[string][]share.Option{
		"unprotected": nil,
		"protected":   {share.Protected()},
	}
	for name, opts := range tests {
		name, opts := name, opts
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := share.NewShare[int16]("Share 0", opts...)
			if got := s.Get(); got != 0 {
				t.Fatalf("initial value = %d, want 0", got)
			}
			s.Put(-12)
			s.Put(42)
			if got := s.Get(); got != 42 {
				t.Errorf("get = %d, want 42", got)
			}
		})
	}
}

type pair struct {
	A, B int64
}

func TestShare_ProtectedNeverTorn(t *testing.T) {
	t.Parallel()

	const n = 20000
	s := share.NewShare[pair]("pos", share.Protected())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= n; i++ {
			s.Put(pair{A: i, B: -i})
		}
	}()

	var last int64
	for last < n {
		p := s.Get()
		if p.A != -p.B {
			t.Fatalf("torn read: %+v", p)
		}
		if p.A < 0 || p.A > n {
			t.Fatalf("value %+v was never written", p)
		}
		if p.A < last {
			t.Fatalf("value went backwards: %d after %d", p.A, last)
		}
		last = p.A
	}
	wg.Wait()
}

func TestRegistry_String(t *testing.T) {
	t.Parallel()

	reg := share.NewRegistry()
	s := share.NewShare[int16]("Share 0")
	q := share.NewQueue[uint32]("Queue 0", 16, share.Protected())
	reg.Add(s, q)

	s.Put(7)
	q.Push(1)
	q.Push(2)

	out := reg.String()
	for _, want := range []string{"Share 0", "share[int16]", "value=7", "Queue 0", "queue[uint32]", "len=2/16"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	stats := reg.QueueStats()
	if len(stats) != 1 {
		t.Fatalf("queue stats = %d entries, want 1", len(stats))
	}
	if stats[0].Name != "Queue 0" || stats[0].Len != 2 || !stats[0].Protected {
		t.Errorf("unexpected stats: %+v", stats[0])
	}
}
