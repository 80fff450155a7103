// Package share provides the inter-task communication primitives used by
// cooperative tasks: a last-value-wins Share and a fixed-capacity Queue.
//
// Neither primitive ever blocks. Protected instances may additionally be
// touched from goroutines that play the role of interrupt handlers.
package share

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// Share holds a single value of type T that any number of tasks may read and
// overwrite. It is a broadcast cell, not a rendezvous: writers never wait for
// readers.
type Share[T any] struct {
	name      string
	protected bool

	value T
	ptr   atomic.Pointer[T] // used instead of value when protected
}

// NewShare creates a Share holding the zero value of T.
func NewShare[T any](name string, opts ...Option) *Share[T] {
	o := buildOptions(opts)
	s := &Share[T]{name: name, protected: o.protect}
	if s.protected {
		s.ptr.Store(new(T))
	}
	return s
}

// Get returns the most recently written value.
func (s *Share[T]) Get() T {
	if s.protected {
		return *s.ptr.Load()
	}
	return s.value
}

// Put replaces the current value.
func (s *Share[T]) Put(v T) {
	if s.protected {
		s.ptr.Store(&v)
		return
	}
	s.value = v
}

func (s *Share[T]) Name() string    { return s.name }
func (s *Share[T]) Protected() bool { return s.protected }

// Kind reports the element type, e.g. "share[int16]".
func (s *Share[T]) Kind() string {
	return "share[" + reflect.TypeOf((*T)(nil)).Elem().String() + "]"
}

// Describe renders the current value for diagnostics.
func (s *Share[T]) Describe() string {
	return fmt.Sprintf("value=%v", s.Get())
}

func (s *Share[T]) String() string {
	return fmt.Sprintf("%s %s %s", s.name, s.Kind(), s.Describe())
}
