package flywheel

// Driver is the power stage a Motor commands.
type Driver interface {
	Drive(duty float64)
}

// Motor clamps duty cycles to [-100, 100] percent and optionally inverts
// them for a motor wired backwards.
type Motor struct {
	drv      Driver
	inverted bool
	duty     float64
}

func NewMotor(drv Driver, inverted bool) *Motor {
	return &Motor{drv: drv, inverted: inverted}
}

// SetDutyCycle drives the motor at duty percent.
func (m *Motor) SetDutyCycle(duty float64) {
	switch {
	case duty > 100:
		duty = 100
	case duty < -100:
		duty = -100
	}
	m.duty = duty
	if m.inverted {
		duty = -duty
	}
	m.drv.Drive(duty)
}

// DutyCycle returns the last commanded duty, before inversion.
func (m *Motor) DutyCycle() float64 { return m.duty }

// Counter is a free-running 16-bit quadrature counter.
type Counter interface {
	Count() uint16
}

// Encoder turns a wrapping 16-bit counter into an unbounded position. It
// must be read at least once per half counter revolution.
type Encoder struct {
	ctr   Counter
	prev  uint16
	pos   int64
	delta int64
}

func NewEncoder(ctr Counter) *Encoder {
	return &Encoder{ctr: ctr, prev: ctr.Count()}
}

// Read samples the counter and returns the accumulated position.
func (e *Encoder) Read() int64 {
	now := e.ctr.Count()
	e.delta = int64(int16(now - e.prev))
	e.prev = now
	e.pos += e.delta
	return e.pos
}

// Delta returns the movement seen by the last Read.
func (e *Encoder) Delta() int64 { return e.delta }

// Zero makes the current position the origin.
func (e *Encoder) Zero() {
	e.prev = e.ctr.Count()
	e.pos = 0
	e.delta = 0
}

// PController is a single-gain proportional control law.
type PController struct {
	gain     float64
	setpoint float64
}

func NewPController(gain, setpoint float64) *PController {
	return &PController{gain: gain, setpoint: setpoint}
}

// Run returns the actuation for the measured value.
func (c *PController) Run(measured int64) float64 {
	return c.gain * (c.setpoint - float64(measured))
}

func (c *PController) SetSetpoint(sp float64) { c.setpoint = sp }
func (c *PController) SetGain(g float64)      { c.gain = g }
func (c *PController) Setpoint() float64      { return c.setpoint }
