package share

import (
	"fmt"
	"strings"
	"sync"
)

// Object is anything the Registry can list: every Share and Queue.
type Object interface {
	Name() string
	Kind() string
	Protected() bool
	Describe() string
}

type queueStatser interface {
	Stats() QueueStats
}

// Registry collects the shares and queues of one program so they can be
// printed together. The host owns it; there is no package-level list.
type Registry struct {
	mu      sync.RWMutex
	objects []Object
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends objects in the order given.
func (r *Registry) Add(objs ...Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = append(r.objects, objs...)
}

// Objects returns the registered objects in registration order.
func (r *Registry) Objects() []Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Object(nil), r.objects...)
}

// QueueStats snapshots every registered queue.
func (r *Registry) QueueStats() []QueueStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []QueueStats
	for _, o := range r.objects {
		if q, ok := o.(queueStatser); ok {
			out = append(out, q.Stats())
		}
	}
	return out
}

// String renders one line per object: name, kind, protection and its
// current value or occupancy.
func (r *Registry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-18s %-5s %s\n", "SHARE", "KIND", "PROT", "STATE")
	for _, o := range r.Objects() {
		prot := "no"
		if o.Protected() {
			prot = "yes"
		}
		fmt.Fprintf(&b, "%-16s %-18s %-5s %s\n", o.Name(), o.Kind(), prot, o.Describe())
	}
	return b.String()
}
