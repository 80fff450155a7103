// Package metrics exports scheduler and queue activity to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"

	"cotask/internal/sched"
	"cotask/internal/share"
)

// Exporter adapts sched.Observer to Prometheus collectors.
type Exporter struct {
	runSeconds   *prom.HistogramVec
	runsTotal    *prom.CounterVec
	faultsTotal  *prom.CounterVec
	lateTicks    *prom.GaugeVec
	queueDepth   *prom.GaugeVec
	queueDropped *prom.GaugeVec
	passesTotal  prom.Counter
	tick         prom.Gauge

	shares *share.Registry
}

var _ sched.Observer = (*Exporter)(nil)

// NewExporter creates and registers the collectors. shares may be nil; when
// set, queue depth and drop counts are refreshed on every pass.
func NewExporter(namespace string, reg prom.Registerer, shares *share.Registry) (*Exporter, error) {
	if namespace == "" {
		namespace = "cotask"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	runSeconds := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_run_seconds",
		Help:      "Duration of one RUNNING interval of a profiled task.",
		Buckets:   prom.ExponentialBuckets(1e-6, 4, 10),
	}, []string{"task", "priority"})
	runsTotal := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_runs_total",
		Help:      "Number of times a task was resumed.",
	}, []string{"task"})
	faultsTotal := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_faults_total",
		Help:      "Number of tasks stopped by a fault.",
	}, []string{"task"})
	lateTicks := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "task_late_ticks",
		Help:      "Ticks between a task becoming due and the start of its latest period.",
	}, []string{"task"})
	queueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Elements currently held by a queue.",
	}, []string{"queue"})
	queueDropped := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_dropped",
		Help:      "Elements evicted from a queue by overwrite.",
	}, []string{"queue"})
	passesTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "passes_total",
		Help:      "Completed dispatch passes.",
	})
	tick := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "tick",
		Help:      "Logical tick of the most recent pass.",
	})

	var err error
	if runSeconds, err = registerCollector(reg, runSeconds); err != nil {
		return nil, err
	}
	if runsTotal, err = registerCollector(reg, runsTotal); err != nil {
		return nil, err
	}
	if faultsTotal, err = registerCollector(reg, faultsTotal); err != nil {
		return nil, err
	}
	if lateTicks, err = registerCollector(reg, lateTicks); err != nil {
		return nil, err
	}
	if queueDepth, err = registerCollector(reg, queueDepth); err != nil {
		return nil, err
	}
	if queueDropped, err = registerCollector(reg, queueDropped); err != nil {
		return nil, err
	}
	if passesTotal, err = registerCollector(reg, passesTotal); err != nil {
		return nil, err
	}
	if tick, err = registerCollector(reg, tick); err != nil {
		return nil, err
	}

	return &Exporter{
		runSeconds:   runSeconds,
		runsTotal:    runsTotal,
		faultsTotal:  faultsTotal,
		lateTicks:    lateTicks,
		queueDepth:   queueDepth,
		queueDropped: queueDropped,
		passesTotal:  passesTotal,
		tick:         tick,
		shares:       shares,
	}, nil
}

// OnRun records one dispatch.
func (e *Exporter) OnRun(info sched.RunInfo) {
	if e == nil {
		return
	}
	e.runsTotal.WithLabelValues(info.Task).Inc()
	if info.First {
		e.lateTicks.WithLabelValues(info.Task).Set(float64(info.Late))
	}
	if info.Duration > 0 {
		e.runSeconds.WithLabelValues(info.Task, strconv.Itoa(info.Priority)).Observe(info.Duration.Seconds())
	}
}

// OnFault counts a task stopped by a fault.
func (e *Exporter) OnFault(task string, _ error) {
	if e == nil {
		return
	}
	e.faultsTotal.WithLabelValues(task).Inc()
}

// OnPass counts the pass and refreshes queue gauges.
func (e *Exporter) OnPass(now sched.Tick) {
	if e == nil {
		return
	}
	e.passesTotal.Inc()
	e.tick.Set(float64(now))
	if e.shares == nil {
		return
	}
	for _, st := range e.shares.QueueStats() {
		e.queueDepth.WithLabelValues(st.Name).Set(float64(st.Len))
		e.queueDropped.WithLabelValues(st.Name).Set(float64(st.Dropped))
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
