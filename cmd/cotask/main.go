package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cotask/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		logLevel    string
		logFormat   string
		metricsAddr string
		traceTask   string
		debug       bool
		duration    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cotask",
		Short: "Run two flywheel control loops on the cooperative scheduler",
		Long: "cotask registers two simulated flywheel control loops with a cooperative,\n" +
			"priority-driven scheduler and runs them until interrupted. Press Ctrl-C to\n" +
			"stop and print task, share and trace diagnostics.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDemoConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if debug {
				cfg.LogLevel = "debug"
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if flags.Changed("trace-task") {
				cfg.TraceTask = traceTask
			}
			return runDemo(cmd.Context(), cfg, duration, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to YAML config (defaults to the built-in bench setup)")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	f.StringVar(&traceTask, "trace-task", "", "Task whose transition trace is printed on exit")
	f.BoolVar(&debug, "debug", false, "Shorthand for --log-level=debug")
	f.DurationVar(&duration, "duration", 0, "Stop after this long instead of waiting for Ctrl-C")

	return cmd
}

// runDemo builds the demo, dispatches until interrupted (or duration
// elapses) and prints diagnostics.
func runDemo(ctx context.Context, cfg demoConfig, duration time.Duration, stdout, stderr io.Writer) error {
	logger := logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, stderr)

	d, err := buildDemo(cfg, logger, cfg.MetricsAddr != "")
	if err != nil {
		return err
	}
	defer d.sched.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if d.registry != nil {
		srv := newMetricsServer(cfg.MetricsAddr, d.registry)
		go func() {
			logger.Info("metrics server starting", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown", "error", err)
			}
		}()
	}

	fmt.Fprintln(stdout, "Cooperative flywheel demo. Press Ctrl-C to stop and show diagnostics.")

	err = d.sched.RunForever(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	d.printDiagnostics(stdout, cfg.TraceTask)
	return nil
}
