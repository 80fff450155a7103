package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cotask/internal/flywheel"
	"cotask/internal/job"
	"cotask/internal/metrics"
	"cotask/internal/sched"
	"cotask/internal/share"
)

// demo is everything the host owns for one run.
type demo struct {
	sched    *sched.Scheduler
	shares   *share.Registry
	position *share.Share[int32]
	samples  *share.Queue[int32]
	loops    map[string]*flywheel.Loop
	registry *prom.Registry // nil without metrics
}

// buildDemo creates the share, the queue and every task, and registers the
// tasks in config order.
func buildDemo(cfg demoConfig, logger *slog.Logger, withMetrics bool, opts ...sched.Option) (*demo, error) {
	d := &demo{
		shares: share.NewRegistry(),
		loops:  make(map[string]*flywheel.Loop),
	}

	var shareOpts, queueOpts []share.Option
	if cfg.Share.Protected {
		shareOpts = append(shareOpts, share.Protected())
	}
	if cfg.Queue.Protected {
		queueOpts = append(queueOpts, share.Protected())
	}
	if cfg.Queue.Overwrite {
		queueOpts = append(queueOpts, share.Overwrite())
	}
	d.position = share.NewShare[int32](cfg.Share.Name, shareOpts...)
	d.samples = share.NewQueue[int32](cfg.Queue.Name, cfg.Queue.Capacity, queueOpts...)
	d.shares.Add(d.position, d.samples)

	opts = append([]sched.Option{sched.WithLogger(logger)}, opts...)
	if withMetrics {
		d.registry = prom.NewRegistry()
		exporter, err := metrics.NewExporter("cotask", d.registry, d.shares)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, sched.WithObserver(exporter))
	}
	d.sched = sched.New(cfg.Scheduler, opts...)

	var tasks []*sched.Task
	for _, fw := range cfg.Flywheels {
		rig := flywheel.NewRig(d.sched.Clock(), fw.RigConfig)
		loop := rig.Loop()
		if fw.Publish {
			loop.Publish(d.position).Record(d.samples)
		}
		d.loops[fw.Name] = loop
		tasks = append(tasks, sched.NewTask(fw.Name, fw.Priority, loop.Step, taskOptions(fw.Period, fw.Profile, fw.Trace)...))
	}

	if tc := cfg.Telemetry; tc.Enabled {
		queueName := cfg.Queue.Name
		drain := job.Drain(d.samples, tc.Batch, func(v int32) {
			logger.Debug("sample", "queue", queueName, "position", v)
		})
		tasks = append(tasks, sched.NewTask(tc.Name, tc.Priority, drain, taskOptions(tc.Period, false, false)...))
	}

	for _, lc := range cfg.Load {
		work := time.Duration(lc.WorkUS) * time.Microsecond
		slice := time.Duration(lc.SliceUS) * time.Microsecond
		tasks = append(tasks, sched.NewTask(lc.Name, lc.Priority, job.Busy(work, slice), taskOptions(lc.Period, lc.Profile, false)...))
	}

	for _, t := range tasks {
		if err := d.sched.Register(t); err != nil {
			d.sched.Close()
			return nil, err
		}
	}
	return d, nil
}

func taskOptions(period int64, profile, trace bool) []sched.TaskOption {
	opts := []sched.TaskOption{sched.WithPeriod(sched.Tick(period))}
	if profile {
		opts = append(opts, sched.WithProfile())
	}
	if trace {
		opts = append(opts, sched.WithTrace(0))
	}
	return opts
}

// printDiagnostics writes the task table, the share table and one task's
// trace, in that order.
func (d *demo) printDiagnostics(w io.Writer, traceTask string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, d.sched.String())
	fmt.Fprintln(w, d.shares.String())
	for _, t := range d.sched.Tasks() {
		if t.Name() == traceTask {
			fmt.Fprintln(w, t.TraceString())
		}
	}
}

// newMetricsServer serves the run's registry on /metrics.
func newMetricsServer(addr string, reg *prom.Registry) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
