// Package metrics exports scheduler activity to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petrijr/autoplan/pkg/api"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Registry is the Prometheus registry to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace overrides the default "autoplan" namespace.
	Namespace string
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Registry:  prometheus.DefaultRegisterer,
		Namespace: "autoplan",
	}
}

// Observer is an api.Observer that records Prometheus metrics. All series
// are labelled by plan name.
type Observer struct {
	builds          *prometheus.CounterVec
	runsStarted     *prometheus.CounterVec
	runsCompleted   *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	stagesCompleted *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	currentStage    *prometheus.GaugeVec
	entriesStarted  *prometheus.CounterVec
	entriesFinished *prometheus.CounterVec
	entryDuration   *prometheus.HistogramVec
	activeEntries   *prometheus.GaugeVec
}

var _ api.Observer = (*Observer)(nil)

// NewObserver registers the scheduler metrics with cfg.Registry. Registering
// twice with the same registry panics, as promauto does.
func NewObserver(cfg Config) *Observer {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "autoplan"
	}
	factory := promauto.With(cfg.Registry)
	ns := cfg.Namespace
	plan := []string{"plan"}

	return &Observer{
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "plan",
				Name:      "builds_total",
				Help:      "Total number of plan builds by result",
			},
			[]string{"plan", "result"},
		),

		runsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "run",
				Name:      "started_total",
				Help:      "Total number of runs started",
			},
			plan,
		),

		runsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "run",
				Name:      "completed_total",
				Help:      "Total number of runs that completed every stage",
			},
			plan,
		),

		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Time from the first tick to completion",
				Buckets:   []float64{1, 5, 10, 15, 20, 25, 30, 45, 60},
			},
			plan,
		),

		stagesCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "stage",
				Name:      "completed_total",
				Help:      "Total number of stages completed",
			},
			plan,
		),

		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Time a stage took until its last entry finished",
				Buckets:   prometheus.DefBuckets,
			},
			plan,
		),

		currentStage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "stage",
				Name:      "current",
				Help:      "Index of the stage being executed",
			},
			plan,
		),

		entriesStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "entry",
				Name:      "started_total",
				Help:      "Total number of entries started",
			},
			plan,
		),

		entriesFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "entry",
				Name:      "finished_total",
				Help:      "Total number of entries finished",
			},
			plan,
		),

		entryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "entry",
				Name:      "duration_seconds",
				Help:      "Time from an entry's first poll to its completion",
				Buckets:   prometheus.DefBuckets,
			},
			plan,
		),

		activeEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "entry",
				Name:      "active",
				Help:      "Number of entries started but not finished",
			},
			plan,
		),
	}
}

func (o *Observer) OnBuild(ctx context.Context, run api.RunInfo, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.builds.WithLabelValues(run.Plan, result).Inc()
}

func (o *Observer) OnRunStart(ctx context.Context, run api.RunInfo) {
	o.runsStarted.WithLabelValues(run.Plan).Inc()
	o.activeEntries.WithLabelValues(run.Plan).Set(0)
}

func (o *Observer) OnStageStart(ctx context.Context, run api.RunInfo, stage api.StageInfo) {
	o.currentStage.WithLabelValues(run.Plan).Set(float64(stage.Index))
}

func (o *Observer) OnEntryStart(ctx context.Context, run api.RunInfo, entry api.EntryInfo) {
	o.entriesStarted.WithLabelValues(run.Plan).Inc()
	o.activeEntries.WithLabelValues(run.Plan).Inc()
}

func (o *Observer) OnEntryFinished(ctx context.Context, run api.RunInfo, entry api.EntryInfo, d time.Duration) {
	o.entriesFinished.WithLabelValues(run.Plan).Inc()
	o.activeEntries.WithLabelValues(run.Plan).Dec()
	o.entryDuration.WithLabelValues(run.Plan).Observe(d.Seconds())
}

func (o *Observer) OnStageCompleted(ctx context.Context, run api.RunInfo, stage api.StageInfo, d time.Duration) {
	o.stagesCompleted.WithLabelValues(run.Plan).Inc()
	o.stageDuration.WithLabelValues(run.Plan).Observe(d.Seconds())
}

func (o *Observer) OnRunCompleted(ctx context.Context, run api.RunInfo, d time.Duration) {
	o.runsCompleted.WithLabelValues(run.Plan).Inc()
	o.runDuration.WithLabelValues(run.Plan).Observe(d.Seconds())
	o.currentStage.WithLabelValues(run.Plan).Set(float64(run.Stages))
}
