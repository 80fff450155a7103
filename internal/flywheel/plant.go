// Package flywheel simulates the motor, quadrature encoder and proportional
// controller of a flywheel rig, and wires them into a control-loop task.
package flywheel

import (
	"cotask/internal/sched"
)

// maxCatchUp bounds how many ticks one call integrates after a long gap.
const maxCatchUp = 10000

// Plant is a first-order model of a motor spinning a flywheel. Time comes
// from the scheduler's clock, so the model advances only as ticks elapse.
type Plant struct {
	clock    sched.Clock
	last     sched.Tick
	reversed bool    // motor leads swapped
	maxSpeed float64 // counts per tick at 100% duty
	response float64 // fraction of the speed error closed each tick

	duty  float64
	speed float64
	pos   float64
}

// NewPlant creates a plant at rest.
func NewPlant(clock sched.Clock, maxSpeed, response float64, reversed bool) *Plant {
	if response <= 0 || response > 1 {
		response = 1
	}
	return &Plant{
		clock:    clock,
		last:     clock.Now(),
		reversed: reversed,
		maxSpeed: maxSpeed,
		response: response,
	}
}

// Drive applies a duty cycle in percent.
func (p *Plant) Drive(duty float64) {
	p.advance()
	if p.reversed {
		duty = -duty
	}
	p.duty = duty
}

// Count returns the 16-bit hardware counter, which wraps.
func (p *Plant) Count() uint16 {
	p.advance()
	return uint16(roundToInt(p.pos))
}

// Position returns the untruncated position in counts.
func (p *Plant) Position() float64 {
	p.advance()
	return p.pos
}

func (p *Plant) advance() {
	now := p.clock.Now()
	n := now - p.last
	p.last = now
	if n > maxCatchUp {
		n = maxCatchUp
	}
	target := p.maxSpeed * p.duty / 100
	for ; n > 0; n-- {
		p.speed += (target - p.speed) * p.response
		p.pos += p.speed
	}
}

func roundToInt(f float64) int64 {
	if f < 0 {
		return int64(f - 0.5)
	}
	return int64(f + 0.5)
}
