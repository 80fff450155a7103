package flywheel

import "cotask/internal/sched"

// RigConfig describes one simulated flywheel and its controller.
type RigConfig struct {
	Gain     float64 `yaml:"gain"`
	Setpoint float64 `yaml:"setpoint"`
	Inverted bool    `yaml:"inverted"`  // motor wired backwards, corrected in software
	MaxSpeed float64 `yaml:"max_speed"` // counts per tick at full duty
	Response float64 `yaml:"response"`  // 0 < response <= 1
}

// Rig bundles the simulated hardware of one flywheel.
type Rig struct {
	Plant      *Plant
	Encoder    *Encoder
	Motor      *Motor
	Controller *PController
}

// NewRig builds a plant, encoder, motor and controller on one clock.
func NewRig(clock sched.Clock, cfg RigConfig) *Rig {
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = 20
	}
	if cfg.Response <= 0 {
		cfg.Response = 0.2
	}
	plant := NewPlant(clock, cfg.MaxSpeed, cfg.Response, cfg.Inverted)
	return &Rig{
		Plant:      plant,
		Encoder:    NewEncoder(plant),
		Motor:      NewMotor(plant, cfg.Inverted),
		Controller: NewPController(cfg.Gain, cfg.Setpoint),
	}
}

// Loop returns a control loop closing this rig.
func (r *Rig) Loop() *Loop {
	return NewLoop(r.Encoder, r.Controller, r.Motor)
}
