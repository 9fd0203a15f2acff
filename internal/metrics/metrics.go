// Package metrics exposes scheduler activity as Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

const namespace = "buildgrid"

// Collector records task and run outcomes. A nil *Collector is valid and
// records nothing.
type Collector struct {
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	activeTasks  prometheus.Gauge
	runsTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg, reusing any that
// are already registered. A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	tasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_total",
		Help:      "Tasks that reached a terminal status, by status.",
	}, []string{"status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Builder execution time in seconds, by resulting status.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"status"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_tasks",
		Help:      "Tasks currently executing.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Completed scheduler runs, by outcome.",
	}, []string{"outcome"})

	var err error
	if tasks, err = register(reg, tasks); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if active, err = register(reg, active); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}

	return &Collector{
		tasksTotal:   tasks,
		taskDuration: duration,
		activeTasks:  active,
		runsTotal:    runs,
	}, nil
}

// TaskStarted marks one more task as executing.
func (c *Collector) TaskStarted() {
	if c == nil {
		return
	}
	c.activeTasks.Inc()
}

// TaskFinished records a builder result and its duration.
func (c *Collector) TaskFinished(st status.Status, d time.Duration) {
	if c == nil {
		return
	}
	c.activeTasks.Dec()
	c.tasksTotal.WithLabelValues(Label(st)).Inc()
	c.taskDuration.WithLabelValues(Label(st)).Observe(d.Seconds())
}

// TaskBlocked records a task that never ran because a dependency failed.
func (c *Collector) TaskBlocked() {
	if c == nil {
		return
	}
	c.tasksTotal.WithLabelValues(Label(status.Blocked)).Inc()
}

// RunFinished records the overall outcome of a run: "success", "warning" or
// "failure".
func (c *Collector) RunFinished(outcome string) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(outcome).Inc()
}

// Label returns the metric label for a status, e.g. "success_with_warnings".
func Label(st status.Status) string {
	return strings.ReplaceAll(strings.ToLower(st.String()), " ", "_")
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
