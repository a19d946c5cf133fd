package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petrijr/autoplan/pkg/api"
)

// Recorder is an api.Observer that appends run events to an EventStore from
// a background goroutine, so a slow store never delays a control cycle.
// Events that arrive while the buffer is full are dropped and counted.
type Recorder struct {
	store  EventStore
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	events chan api.RunEvent
	done   chan struct{}

	dropped atomic.Int64
	once    sync.Once
}

var _ api.Observer = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	buffer int
	logger *slog.Logger
	now    func() time.Time
}

// WithBuffer sets the number of events that may wait for the store. The
// default is 256.
func WithBuffer(n int) RecorderOption {
	return func(c *recorderConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(c *recorderConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func withNow(now func() time.Time) RecorderOption {
	return func(c *recorderConfig) {
		c.now = now
	}
}

// NewRecorder starts a Recorder writing to store. Close must be called to
// flush pending events and stop the writer goroutine.
func NewRecorder(store EventStore, opts ...RecorderOption) *Recorder {
	cfg := recorderConfig{
		buffer: 256,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Recorder{
		store:  store,
		logger: cfg.logger,
		now:    cfg.now,
		events: make(chan api.RunEvent, cfg.buffer),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Recorder) loop() {
	defer close(r.done)
	for ev := range r.events {
		if err := r.store.AppendEvent(context.Background(), ev); err != nil {
			r.logger.Warn("run_event_append_failed",
				slog.String("run_id", ev.RunID),
				slog.String("type", string(ev.Type)),
				slog.Any("error", err),
			)
		}
	}
}

// Dropped returns the number of events discarded because the buffer was
// full or the recorder was closed.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits until every buffered event has
// been written or ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
	})

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) record(ev api.RunEvent) {
	ev.At = r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.events <- ev:
	default:
		r.dropped.Add(1)
		r.logger.Warn("run_event_dropped",
			slog.String("run_id", ev.RunID),
			slog.String("type", string(ev.Type)),
		)
	}
}

func (r *Recorder) OnBuild(ctx context.Context, run api.RunInfo, err error) {
	ev := api.RunEvent{RunID: run.ID, Type: api.EventRunBuilt, Plan: run.Plan, Stage: -1, Entry: -1}
	if err != nil {
		ev.Type = api.EventRunBuildFailed
		ev.Detail = err.Error()
	} else {
		ev.Detail = fmt.Sprintf("%d stages, %d entries", run.Stages, run.Entries)
	}
	r.record(ev)
}

func (r *Recorder) OnRunStart(ctx context.Context, run api.RunInfo) {
	r.record(api.RunEvent{RunID: run.ID, Type: api.EventRunStarted, Plan: run.Plan, Stage: -1, Entry: -1})
}

func (r *Recorder) OnStageStart(ctx context.Context, run api.RunInfo, stage api.StageInfo) {
	r.record(api.RunEvent{RunID: run.ID, Type: api.EventStageStarted, Plan: run.Plan, Stage: stage.Index, Entry: -1})
}

func (r *Recorder) OnEntryStart(ctx context.Context, run api.RunInfo, entry api.EntryInfo) {
	r.record(api.RunEvent{
		RunID:  run.ID,
		Type:   api.EventEntryStarted,
		Plan:   run.Plan,
		Stage:  entry.Stage,
		Entry:  entry.Position,
		Detail: entry.Description,
	})
}

func (r *Recorder) OnEntryFinished(ctx context.Context, run api.RunInfo, entry api.EntryInfo, d time.Duration) {
	r.record(api.RunEvent{
		RunID:    run.ID,
		Type:     api.EventEntryFinished,
		Plan:     run.Plan,
		Stage:    entry.Stage,
		Entry:    entry.Position,
		Duration: d,
		Detail:   entry.Description,
	})
}

func (r *Recorder) OnStageCompleted(ctx context.Context, run api.RunInfo, stage api.StageInfo, d time.Duration) {
	r.record(api.RunEvent{
		RunID:    run.ID,
		Type:     api.EventStageCompleted,
		Plan:     run.Plan,
		Stage:    stage.Index,
		Entry:    -1,
		Duration: d,
	})
}

func (r *Recorder) OnRunCompleted(ctx context.Context, run api.RunInfo, d time.Duration) {
	r.record(api.RunEvent{
		RunID:    run.ID,
		Type:     api.EventRunCompleted,
		Plan:     run.Plan,
		Stage:    -1,
		Entry:    -1,
		Duration: d,
	})
}
