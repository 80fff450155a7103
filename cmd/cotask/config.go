package main

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"

	"cotask/internal/flywheel"
	"cotask/internal/sched"
)

// demoConfig mirrors config.yml.
type demoConfig struct {
	Scheduler   sched.Config     `yaml:"scheduler"`
	LogLevel    string           `yaml:"log_level"`    // debug, info, warn, error
	LogFormat   string           `yaml:"log_format"`   // text, json
	MetricsAddr string           `yaml:"metrics_addr"` // empty disables the /metrics endpoint
	TraceTask   string           `yaml:"trace_task"`   // task whose trace is printed on exit
	Share       shareConfig      `yaml:"share"`
	Queue       queueConfig      `yaml:"queue"`
	Flywheels   []flywheelConfig `yaml:"flywheels"`
	Telemetry   telemetryConfig  `yaml:"telemetry"`
	Load        []loadConfig     `yaml:"load"`
}

type shareConfig struct {
	Name      string `yaml:"name"`
	Protected bool   `yaml:"protected"`
}

type queueConfig struct {
	Name      string `yaml:"name"`
	Capacity  int    `yaml:"capacity"`
	Overwrite bool   `yaml:"overwrite"`
	Protected bool   `yaml:"protected"`
}

type flywheelConfig struct {
	Name               string `yaml:"name"`
	Priority           int    `yaml:"priority"`
	Period             int64  `yaml:"period"` // ticks
	Profile            bool   `yaml:"profile"`
	Trace              bool   `yaml:"trace"`
	Publish            bool   `yaml:"publish"` // write position to the share and queue
	flywheel.RigConfig `yaml:",inline"`
}

// telemetryConfig describes the task that drains the sample queue.
type telemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Period   int64  `yaml:"period"`
	Batch    int    `yaml:"batch"`
}

// loadConfig adds a synthetic CPU-bound task, handy for watching the
// profiler and lateness columns react.
type loadConfig struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Period   int64  `yaml:"period"`
	WorkUS   int    `yaml:"work_us"`
	SliceUS  int    `yaml:"slice_us"`
	Profile  bool   `yaml:"profile"`
}

// defaultDemoConfig reproduces the two-flywheel bench setup.
func defaultDemoConfig() demoConfig {
	return demoConfig{
		Scheduler: sched.DefaultConfig(),
		LogLevel:  "info",
		LogFormat: "text",
		TraceTask: "Task_2",
		Share:     shareConfig{Name: "Share 0"},
		Queue:     queueConfig{Name: "Queue 0", Capacity: 16},
		Flywheels: []flywheelConfig{
			{
				Name: "Task_1", Priority: 1, Period: 10, Profile: true, Publish: true,
				RigConfig: flywheel.RigConfig{Gain: 0.029, Setpoint: 1050},
			},
			{
				Name: "Task_2", Priority: 2, Period: 50, Profile: true,
				RigConfig: flywheel.RigConfig{Gain: 0.025, Setpoint: 3000, Inverted: true},
			},
		},
		Telemetry: telemetryConfig{Name: "Telemetry", Priority: 3, Period: 100, Batch: 16},
	}
}

// loadDemoConfig reads YAML over the defaults; empty path = defaults only.
func loadDemoConfig(path string) (demoConfig, error) {
	cfg := defaultDemoConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c demoConfig) validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("queue %q: capacity must be positive", c.Queue.Name)
	}
	if len(c.Flywheels) == 0 {
		return fmt.Errorf("no flywheels configured")
	}
	return nil
}
