package flywheel

import (
	"context"
	"math"

	"cotask/internal/sched"
	"cotask/internal/share"
)

// Sensor, Controller and Actuator are the collaborators of one control-loop
// iteration.
type Sensor interface {
	Read() int64
}

type Controller interface {
	Run(measured int64) float64
}

type Actuator interface {
	SetDutyCycle(duty float64)
}

type zeroer interface {
	Zero()
}

type phase int

const (
	phaseInit phase = iota
	phaseControl
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseControl:
		return "control"
	default:
		return "unknown"
	}
}

// Loop is a closed position loop expressed as a two-point state machine:
// it zeroes the sensor once, then runs one read/compute/actuate iteration
// per resume.
type Loop struct {
	sensor     Sensor
	controller Controller
	actuator   Actuator

	// Optional outputs for other tasks.
	position *share.Share[int32]
	samples  *share.Queue[int32]

	machine    *sched.Machine[phase]
	iterations uint64
	rejected   uint64
}

// NewLoop wires the collaborators into a loop.
func NewLoop(sensor Sensor, controller Controller, actuator Actuator) *Loop {
	l := &Loop{sensor: sensor, controller: controller, actuator: actuator}
	l.machine = sched.NewMachine(phaseInit, map[phase]sched.Handler[phase]{
		phaseInit:    l.init,
		phaseControl: l.control,
	})
	return l
}

// Publish makes every iteration store the measured position in s.
func (l *Loop) Publish(s *share.Share[int32]) *Loop {
	l.position = s
	return l
}

// Record makes every iteration push the measured position into q.
func (l *Loop) Record(q *share.Queue[int32]) *Loop {
	l.samples = q
	return l
}

// Step is the loop's sched.StepFunc.
func (l *Loop) Step(ctx context.Context) (sched.Outcome, error) {
	return l.machine.Step(ctx)
}

// Iterations returns how many control iterations have run.
func (l *Loop) Iterations() uint64 { return l.iterations }

// Rejected returns how many samples did not fit in the record queue.
func (l *Loop) Rejected() uint64 { return l.rejected }

func (l *Loop) init(ctx context.Context) (phase, sched.Outcome, error) {
	if z, ok := l.sensor.(zeroer); ok {
		z.Zero()
	}
	l.actuator.SetDutyCycle(0)
	return phaseControl, sched.Continue, nil
}

func (l *Loop) control(ctx context.Context) (phase, sched.Outcome, error) {
	measured := l.sensor.Read()
	l.actuator.SetDutyCycle(l.controller.Run(measured))
	l.iterations++

	sample := clampInt32(measured)
	if l.position != nil {
		l.position.Put(sample)
	}
	if l.samples != nil && !l.samples.Push(sample) {
		l.rejected++
	}
	return phaseControl, sched.Yield, nil
}

func clampInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
