package auto

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/autoplan/pkg/api"
	"github.com/petrijr/autoplan/pkg/clock"
)

// PlanFunc declares the jobs of a plan. It runs exactly once, from Build.
type PlanFunc func(b *Builder) error

// Option configures a Sequence.
type Option func(*Sequence)

// WithClock sets the clock used by timer jobs and for durations reported to
// observers. The default is a clock.Run started at Build.
func WithClock(c api.Clock) Option {
	return func(s *Sequence) {
		s.clock = c
	}
}

// WithMirror sets the source of the mirror flag. It is read once per
// buffered job at build time; when it returns true, Mirrorable jobs are
// reversed unless their binding skips mirroring.
func WithMirror(mirror func() bool) Option {
	return func(s *Sequence) {
		s.mirror = mirror
	}
}

// WithObserver sets the observer notified of build and run events.
func WithObserver(obs api.Observer) Option {
	return func(s *Sequence) {
		if obs != nil {
			s.observer = obs
		}
	}
}

// WithRunID overrides the run id generator. The default generates UUIDs.
func WithRunID(gen func() string) Option {
	return func(s *Sequence) {
		if gen != nil {
			s.newRunID = gen
		}
	}
}

// Sequence is the autonomous job scheduler. It owns a flat queue of entries
// separated by barriers and advances through it one stage at a time: each
// Tick polls every entry of the current stage, and the cursor moves past the
// closing barrier only when all of them are done.
//
// A Sequence is driven from a single control loop and is not safe for
// concurrent use.
type Sequence struct {
	name     string
	plan     PlanFunc
	clock    api.Clock
	mirror   func() bool
	observer api.Observer
	newRunID func() string

	state    api.State
	building bool
	buildErr error
	run      api.RunInfo

	elements   []element
	stageSizes []int
	cursor     int
	stage      int

	stageStarted   bool
	stageStartedAt time.Duration
	runStartedAt   time.Duration
	runEndedAt     time.Duration
}

// New creates an idle sequence for the given plan.
func New(name string, plan PlanFunc, opts ...Option) *Sequence {
	s := &Sequence{
		name:     name,
		plan:     plan,
		observer: api.NoopObserver{},
		newRunID: uuid.NewString,
		state:    api.StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the plan name.
func (s *Sequence) Name() string {
	return s.name
}

// State returns the current lifecycle state.
func (s *Sequence) State() api.State {
	return s.state
}

// Run returns the identity of the current run. It is zero before Build.
func (s *Sequence) Run() api.RunInfo {
	return s.run
}

// Err returns the build error, if the build was rejected.
func (s *Sequence) Err() error {
	return s.buildErr
}

// Complete reports whether every stage has finished.
func (s *Sequence) Complete() bool {
	return s.state == api.StateComplete
}

// Build runs the plan callback and validates the resulting queue. It may be
// called only once, and not from inside the plan callback. When the plan is rejected the sequence moves to
// api.StateFailed and every later Tick returns the build error.
func (s *Sequence) Build(ctx context.Context) error {
	if s.state != api.StateIdle || s.building {
		return ErrAlreadyBuilt
	}
	s.building = true
	defer func() { s.building = false }()

	if s.clock == nil {
		s.clock = clock.NewRun()
	}
	s.run = api.RunInfo{ID: s.newRunID(), Plan: s.name}

	b := newBuilder(s)
	var err error
	if s.plan != nil {
		err = s.plan(b)
	}
	if closeErr := b.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.state = api.StateFailed
		s.buildErr = err
		s.observer.OnBuild(ctx, s.run, err)
		return err
	}

	s.elements = b.elements
	s.stageSizes = b.stageSizes
	s.cursor = 0
	s.stage = 0
	s.run.Stages = len(b.stageSizes)
	s.run.Entries = len(b.elements) - len(b.stageSizes)
	s.state = api.StateBuilt
	s.observer.OnBuild(ctx, s.run, nil)
	return nil
}

// Tick advances the plan by one control cycle and reports whether the plan
// is complete. Ticks after completion are no-ops.
func (s *Sequence) Tick(ctx context.Context) (bool, error) {
	switch s.state {
	case api.StateIdle:
		return false, ErrNotBuilt
	case api.StateFailed:
		return false, s.buildErr
	case api.StateComplete:
		return true, nil
	case api.StateBuilt:
		s.state = api.StateRunning
		s.runStartedAt = s.clock.Elapsed()
		s.observer.OnRunStart(ctx, s.run)
	}

	if s.cursor >= len(s.elements) {
		s.finish(ctx)
		return true, nil
	}

	if !s.stageStarted {
		s.stageStarted = true
		s.stageStartedAt = s.clock.Elapsed()
		s.observer.OnStageStart(ctx, s.run, s.stageInfo())
	}

	// Every entry is polled, even after one reports not done, so that all
	// jobs of the stage are started on the same tick.
	allDone := true
	i := s.cursor
scan:
	for ; i < len(s.elements); i++ {
		switch el := s.elements[i].(type) {
		case barrier:
			break scan
		case *entry:
			started, finished := el.poll(s.clock)
			if started {
				s.observer.OnEntryStart(ctx, s.run, el.info())
			}
			if finished {
				s.observer.OnEntryFinished(ctx, s.run, el.info(), s.clock.Elapsed()-el.startedAt)
			}
			allDone = allDone && el.state == entryDone
		}
	}
	if !allDone {
		return false, nil
	}

	s.observer.OnStageCompleted(ctx, s.run, s.stageInfo(), s.clock.Elapsed()-s.stageStartedAt)
	s.cursor = i + 1
	s.stage++
	s.stageStarted = false

	if s.cursor >= len(s.elements) {
		s.finish(ctx)
		return true, nil
	}
	return false, nil
}

func (s *Sequence) finish(ctx context.Context) {
	s.cursor = len(s.elements)
	s.state = api.StateComplete
	s.runEndedAt = s.clock.Elapsed()
	s.observer.OnRunCompleted(ctx, s.run, s.runEndedAt-s.runStartedAt)
}

func (s *Sequence) stageInfo() api.StageInfo {
	info := api.StageInfo{Index: s.stage}
	if s.stage < len(s.stageSizes) {
		info.Entries = s.stageSizes[s.stage]
	}
	return info
}

// Status returns a snapshot for status reporting.
func (s *Sequence) Status() api.Status {
	st := api.Status{
		RunID:    s.run.ID,
		Plan:     s.name,
		State:    s.state,
		Complete: s.state == api.StateComplete,
		Stage:    s.stage,
		Stages:   len(s.stageSizes),
		Cursor:   s.cursor,
	}

	switch s.state {
	case api.StateRunning:
		st.Elapsed = s.clock.Elapsed() - s.runStartedAt
	case api.StateComplete:
		st.Elapsed = s.runEndedAt - s.runStartedAt
	}

	if s.state != api.StateBuilt && s.state != api.StateRunning {
		return st
	}
	for i := s.cursor; i < len(s.elements); i++ {
		e, ok := s.elements[i].(*entry)
		if !ok {
			break
		}
		if e.state != entryDone {
			st.Active = append(st.Active, e.task.String())
		}
	}
	return st
}

func (s *Sequence) mirrored() bool {
	return s.mirror != nil && s.mirror()
}
