package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from a job sequence for logging and metrics.
//
// Callbacks run on the control loop. Implementations must not block; slow
// work (I/O) belongs on another goroutine.
type Observer interface {
	// OnBuild is called once after the plan callback ran. err is non-nil when
	// the build was rejected.
	OnBuild(ctx context.Context, run RunInfo, err error)

	// OnRunStart is called on the first tick of a built plan.
	OnRunStart(ctx context.Context, run RunInfo)

	// OnStageStart is called the first time a stage is polled.
	OnStageStart(ctx context.Context, run RunInfo, stage StageInfo)

	// OnEntryStart is called right after an entry's job has been started.
	OnEntryStart(ctx context.Context, run RunInfo, entry EntryInfo)

	// OnEntryFinished is called on the poll that first observes the entry done.
	OnEntryFinished(ctx context.Context, run RunInfo, entry EntryInfo, d time.Duration)

	// OnStageCompleted is called when every entry of a stage is done.
	OnStageCompleted(ctx context.Context, run RunInfo, stage StageInfo, d time.Duration)

	// OnRunCompleted is called once the cursor moves past the last barrier.
	OnRunCompleted(ctx context.Context, run RunInfo, d time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnBuild(ctx context.Context, run RunInfo, err error)              {}
func (NoopObserver) OnRunStart(ctx context.Context, run RunInfo)                      {}
func (NoopObserver) OnStageStart(ctx context.Context, run RunInfo, stage StageInfo)   {}
func (NoopObserver) OnEntryStart(ctx context.Context, run RunInfo, entry EntryInfo)   {}
func (NoopObserver) OnRunCompleted(ctx context.Context, run RunInfo, d time.Duration) {}
func (NoopObserver) OnEntryFinished(ctx context.Context, run RunInfo, entry EntryInfo, d time.Duration) {
}
func (NoopObserver) OnStageCompleted(ctx context.Context, run RunInfo, stage StageInfo, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnBuild(ctx context.Context, run RunInfo, err error) {
	for _, o := range c.observers {
		o.OnBuild(ctx, run, err)
	}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, run RunInfo) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, run)
	}
}

func (c *CompositeObserver) OnStageStart(ctx context.Context, run RunInfo, stage StageInfo) {
	for _, o := range c.observers {
		o.OnStageStart(ctx, run, stage)
	}
}

func (c *CompositeObserver) OnEntryStart(ctx context.Context, run RunInfo, entry EntryInfo) {
	for _, o := range c.observers {
		o.OnEntryStart(ctx, run, entry)
	}
}

func (c *CompositeObserver) OnEntryFinished(ctx context.Context, run RunInfo, entry EntryInfo, d time.Duration) {
	for _, o := range c.observers {
		o.OnEntryFinished(ctx, run, entry, d)
	}
}

func (c *CompositeObserver) OnStageCompleted(ctx context.Context, run RunInfo, stage StageInfo, d time.Duration) {
	for _, o := range c.observers {
		o.OnStageCompleted(ctx, run, stage, d)
	}
}

func (c *CompositeObserver) OnRunCompleted(ctx context.Context, run RunInfo, d time.Duration) {
	for _, o := range c.observers {
		o.OnRunCompleted(ctx, run, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run, stage and entry
// lifecycle events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnBuild(ctx context.Context, run RunInfo, err error) {
	if err != nil {
		o.Logger.ErrorContext(ctx, "plan_build_failed",
			slog.String("plan", run.Plan),
			slog.String("run_id", run.ID),
			slog.Any("error", err),
		)
		return
	}
	o.Logger.InfoContext(ctx, "plan_built",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
		slog.Int("stages", run.Stages),
		slog.Int("entries", run.Entries),
	)
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, run RunInfo) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
	)
}

func (o *LoggingObserver) OnStageStart(ctx context.Context, run RunInfo, stage StageInfo) {
	o.Logger.DebugContext(ctx, "stage_start",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
		slog.Int("stage", stage.Index),
		slog.Int("entries", stage.Entries),
	)
}

func (o *LoggingObserver) OnEntryStart(ctx context.Context, run RunInfo, entry EntryInfo) {
	o.Logger.DebugContext(ctx, "entry_start",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
		slog.Int("stage", entry.Stage),
		slog.Int("entry", entry.Position),
		slog.String("job", entry.Description),
	)
}

func (o *LoggingObserver) OnEntryFinished(ctx context.Context, run RunInfo, entry EntryInfo, d time.Duration) {
	o.Logger.DebugContext(ctx, "entry_finished",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
		slog.Int("stage", entry.Stage),
		slog.Int("entry", entry.Position),
		slog.String("job", entry.Description),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnStageCompleted(ctx context.Context, run RunInfo, stage StageInfo, d time.Duration) {
	o.Logger.InfoContext(ctx, "stage_completed",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
		slog.Int("stage", stage.Index),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnRunCompleted(ctx context.Context, run RunInfo, d time.Duration) {
	o.Logger.InfoContext(ctx, "run_completed",
		slog.String("plan", run.Plan),
		slog.String("run_id", run.ID),
		slog.Duration("duration", d),
	)
}

// BasicMetrics collects simple counters and aggregate stage durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	buildsSucceeded    atomic.Int64
	buildsFailed       atomic.Int64
	runsCompleted      atomic.Int64
	entriesStarted     atomic.Int64
	entriesFinished    atomic.Int64
	stagesCompleted    atomic.Int64
	totalStageDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	BuildsSucceeded int64
	BuildsFailed    int64
	RunsCompleted   int64

	EntriesStarted  int64
	EntriesFinished int64
	ActiveEntries   int64

	StagesCompleted  int64
	AvgStageDuration time.Duration
}

func (m *BasicMetrics) OnBuild(ctx context.Context, run RunInfo, err error) {
	if err != nil {
		m.buildsFailed.Add(1)
		return
	}
	m.buildsSucceeded.Add(1)
}

func (m *BasicMetrics) OnEntryStart(ctx context.Context, run RunInfo, entry EntryInfo) {
	m.entriesStarted.Add(1)
}

func (m *BasicMetrics) OnEntryFinished(ctx context.Context, run RunInfo, entry EntryInfo, d time.Duration) {
	m.entriesFinished.Add(1)
}

func (m *BasicMetrics) OnStageCompleted(ctx context.Context, run RunInfo, stage StageInfo, d time.Duration) {
	m.stagesCompleted.Add(1)
	m.totalStageDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnRunCompleted(ctx context.Context, run RunInfo, d time.Duration) {
	m.runsCompleted.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.entriesStarted.Load()
	finished := m.entriesFinished.Load()
	stages := m.stagesCompleted.Load()
	totalNs := m.totalStageDuration.Load()

	var avg time.Duration
	if stages > 0 {
		avg = time.Duration(totalNs / stages)
	}

	return BasicMetricsSnapshot{
		BuildsSucceeded:  m.buildsSucceeded.Load(),
		BuildsFailed:     m.buildsFailed.Load(),
		RunsCompleted:    m.runsCompleted.Load(),
		EntriesStarted:   started,
		EntriesFinished:  finished,
		ActiveEntries:    started - finished,
		StagesCompleted:  stages,
		AvgStageDuration: avg,
	}
}
