package sched

import (
	"log/slog"
	"time"
)

// Options holds configuration options for the [Scheduler] that are not part
// of the file-backed [Config].
type Options struct {
	Clock    Clock
	Logger   *slog.Logger
	Observer Observer
	Now      func() time.Time
}

// Option is a function that configures [Options].
type Option func(*Options)

// WithClock sets the tick source. Without it the scheduler starts its own
// TickClock at the configured tick interval.
func WithClock(c Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithLogger sets the logger for the [Scheduler].
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver sets the hook notified of runs, faults and passes.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithTimeSource replaces time.Now for execution-time profiling.
func WithTimeSource(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
