package share

import (
	"runtime"
	"sync/atomic"
)

// IRQState is whatever a Guard needs to restore the previous interrupt mask.
type IRQState uintptr

// Guard brackets a critical section the way disabling and restoring an
// interrupt source would on bare metal. Implementations must never block for
// longer than the critical section they protect.
type Guard interface {
	Disable() IRQState
	Restore(IRQState)
}

// GuardFuncs adapts a platform's disable/restore pair (TinyGo's
// interrupt.Disable and interrupt.Restore, for example) to a Guard.
type GuardFuncs struct {
	DisableFunc func() IRQState
	RestoreFunc func(IRQState)
}

func (g GuardFuncs) Disable() IRQState  { return g.DisableFunc() }
func (g GuardFuncs) Restore(s IRQState) { g.RestoreFunc(s) }

// SpinGuard is the default Guard on hosted targets. Goroutines standing in for
// interrupt handlers spin on a single flag instead of parking on a mutex.
type SpinGuard struct {
	held atomic.Bool
}

// Disable enters the critical section.
func (g *SpinGuard) Disable() IRQState {
	for !g.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
	return 1
}

// Restore leaves the critical section.
func (g *SpinGuard) Restore(IRQState) {
	g.held.Store(false)
}
