package sched

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors the scheduler section of a YAML config file.
type Config struct {
	TickMS     int    `yaml:"tick_ms"`     // 1 (by default)
	Mode       string `yaml:"mode"`        // "priority" (by default) or "round_robin"
	TieBreak   string `yaml:"tie_break"`   // "round_robin" (by default) or "registration"
	TraceDepth int    `yaml:"trace_depth"` // 64 (by default)
}

// DefaultConfig returns the values used when a file omits a key.
func DefaultConfig() Config {
	return Config{
		TickMS:     1,
		Mode:       ModePriority.String(),
		TieBreak:   TieRoundRobin.String(),
		TraceDepth: 64,
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scheduler config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scheduler config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// applyDefaults replaces zero and negative values, the way an omitted key
// would have been filled in.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TickMS <= 0 {
		c.TickMS = d.TickMS
	}
	if c.TraceDepth <= 0 {
		c.TraceDepth = d.TraceDepth
	}
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.TieBreak == "" {
		c.TieBreak = d.TieBreak
	}
}

// Validate reports unknown mode or tie-break names.
func (c Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := ParseTieBreak(c.TieBreak); err != nil {
		return err
	}
	return nil
}

// TickDuration is the wall-clock length of one tick.
func (c Config) TickDuration() time.Duration {
	if c.TickMS <= 0 {
		return time.Millisecond
	}
	return time.Duration(c.TickMS) * time.Millisecond
}

// Mode selects how the next READY task is chosen.
type Mode int

const (
	// ModePriority resumes the READY task with the lowest priority number.
	ModePriority Mode = iota
	// ModeRoundRobin ignores priority and resumes READY tasks in registry
	// order, starting after the task that ran last.
	ModeRoundRobin
)

func (m Mode) String() string {
	switch m {
	case ModeRoundRobin:
		return "round_robin"
	default:
		return "priority"
	}
}

// ParseMode accepts "priority" and "round_robin" (or "rr").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "priority", "pri", "":
		return ModePriority, nil
	case "round_robin", "round-robin", "rr":
		return ModeRoundRobin, nil
	default:
		return ModePriority, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// TieBreak orders READY tasks that share a priority.
type TieBreak int

const (
	// TieRoundRobin resumes the least recently run task first.
	TieRoundRobin TieBreak = iota
	// TieRegistration always prefers the task registered first.
	TieRegistration
)

func (tb TieBreak) String() string {
	switch tb {
	case TieRegistration:
		return "registration"
	default:
		return "round_robin"
	}
}

// ParseTieBreak accepts "round_robin" (or "rr") and "registration".
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "round_robin", "round-robin", "rr", "":
		return TieRoundRobin, nil
	case "registration", "fifo":
		return TieRegistration, nil
	default:
		return TieRoundRobin, fmt.Errorf("%w: unknown tie break %q", ErrInvalidConfig, s)
	}
}
