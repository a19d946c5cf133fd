package auto

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/autoplan/pkg/api"
)

// testJob is a mirrorable job with a name used in status descriptions.
type testJob struct {
	BaseJob
	name     string
	heading  float64
	reversed int
}

func newJob(name string) *testJob {
	return &testJob{name: name, heading: 90}
}

func (j *testJob) Reverse() {
	j.reversed++
	j.heading = -j.heading
}

func (j *testJob) String() string { return j.name }

// plainJob does not implement Mirrorable or fmt.Stringer.
type plainJob struct {
	BaseJob
}

// testBehavior hosts testJobs and records hook calls.
type testBehavior struct {
	Slot[*testJob]

	added   int
	updates int
	// polledWhileAdded captures whether the job had been reversed when it
	// became active.
	reversedAtStart []int
}

func (b *testBehavior) OnJobAdded() {
	b.added++
	job, _ := b.CurrentJob()
	b.reversedAtStart = append(b.reversedAtStart, job.reversed)
}

func (b *testBehavior) UpdateJob(ctx context.Context) error {
	b.updates++
	return nil
}

type plainBehavior struct {
	Slot[*plainJob]
}

func (b *plainBehavior) UpdateJob(ctx context.Context) error { return nil }

func newTestSequence(t *testing.T, plan PlanFunc, opts ...Option) (*Sequence, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	opts = append([]Option{
		WithClock(newStepClock()),
		WithObserver(obs),
		WithRunID(func() string { return "run-1" }),
	}, opts...)
	return New("test-plan", plan, opts...), obs
}

// stepClock is a minimal manual clock; the clock package is not used here to
// keep the scheduler tests self-contained.
type stepClock struct {
	mu sync.Mutex
	t  time.Duration
}

func newStepClock() *stepClock { return &stepClock{} }

func (c *stepClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t += d
}

type observedEvent struct {
	Type   api.EventType
	Stage  int
	Entry  int
	Detail string
	Err    error
}

type recordingObserver struct {
	mu     sync.Mutex
	events []observedEvent
}

func (o *recordingObserver) add(ev observedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) types() []api.EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]api.EventType, 0, len(o.events))
	for _, ev := range o.events {
		out = append(out, ev.Type)
	}
	return out
}

func (o *recordingObserver) OnBuild(ctx context.Context, run api.RunInfo, err error) {
	typ := api.EventRunBuilt
	if err != nil {
		typ = api.EventRunBuildFailed
	}
	o.add(observedEvent{Type: typ, Stage: -1, Entry: -1, Err: err})
}

func (o *recordingObserver) OnRunStart(ctx context.Context, run api.RunInfo) {
	o.add(observedEvent{Type: api.EventRunStarted, Stage: -1, Entry: -1})
}

func (o *recordingObserver) OnStageStart(ctx context.Context, run api.RunInfo, stage api.StageInfo) {
	o.add(observedEvent{Type: api.EventStageStarted, Stage: stage.Index, Entry: -1})
}

func (o *recordingObserver) OnEntryStart(ctx context.Context, run api.RunInfo, entry api.EntryInfo) {
	o.add(observedEvent{Type: api.EventEntryStarted, Stage: entry.Stage, Entry: entry.Position, Detail: entry.Description})
}

func (o *recordingObserver) OnEntryFinished(ctx context.Context, run api.RunInfo, entry api.EntryInfo, d time.Duration) {
	o.add(observedEvent{Type: api.EventEntryFinished, Stage: entry.Stage, Entry: entry.Position, Detail: entry.Description})
}

func (o *recordingObserver) OnStageCompleted(ctx context.Context, run api.RunInfo, stage api.StageInfo, d time.Duration) {
	o.add(observedEvent{Type: api.EventStageCompleted, Stage: stage.Index, Entry: -1})
}

func (o *recordingObserver) OnRunCompleted(ctx context.Context, run api.RunInfo, d time.Duration) {
	o.add(observedEvent{Type: api.EventRunCompleted, Stage: -1, Entry: -1})
}

func requirePanicsWithError(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.Truef(t, ok, "panic value is %T, want error", r)
		require.ErrorIs(t, err, target)
	}()
	fn()
}
