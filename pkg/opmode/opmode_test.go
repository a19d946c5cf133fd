package opmode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/autoplan/pkg/alliance"
	"github.com/petrijr/autoplan/pkg/api"
	"github.com/petrijr/autoplan/pkg/auto"
	"github.com/petrijr/autoplan/pkg/clock"
	"github.com/petrijr/autoplan/pkg/telemetry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMode(t *testing.T, plan auto.PlanFunc, behaviors []Behavior, opts ...Option) (*OpMode, *clock.Manual, *telemetry.Recorder) {
	t.Helper()
	clk := clock.NewManual()
	rec := &telemetry.Recorder{}
	opts = append([]Option{
		WithClock(clk),
		WithSink(rec),
		WithLogger(discardLogger()),
		WithSequenceOptions(auto.WithRunID(func() string { return "run-1" })),
	}, opts...)
	return New("match", plan, behaviors, opts...), clk, rec
}

// matchPlan drives and closes the claw in parallel, waits one second, then
// opens the claw.
func matchPlan(d *drivetrain, c *claw, first *driveJob) auto.PlanFunc {
	return func(b *auto.Builder) error {
		if err := b.Execute(auto.Bind(d, first), auto.Bind(c, &clawJob{})); err != nil {
			return err
		}
		if err := b.Wait(time.Second); err != nil {
			return err
		}
		return b.Execute(auto.Bind(c, &clawJob{open: true}))
	}
}

func TestOpMode_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	log := &callLog{}
	d := &drivetrain{log: log}
	c := &claw{log: log}
	first := &driveJob{distance: 1.2, heading: 90, updates: 2}

	mode, clk, rec := newTestMode(t, matchPlan(d, c, first), []Behavior{d, c})
	require.Equal(t, PhaseInvalid, mode.Phase())
	require.Equal(t, api.StateIdle, mode.Status().State)

	require.NoError(t, mode.Init(ctx))
	require.Equal(t, PhaseInitialize, mode.Phase())
	require.NoError(t, mode.InitLoop(ctx))
	require.NoError(t, mode.InitLoop(ctx))
	require.Equal(t, PhaseInitLoop, mode.Phase())
	require.Equal(t, []telemetry.Line{
		{Caption: "Alliance", Value: "blue"},
		{Caption: "Plan", Value: "match"},
	}, rec.Last())

	require.NoError(t, mode.Start(ctx))
	require.Equal(t, PhaseStart, mode.Phase())
	require.Equal(t, api.StateBuilt, mode.Sequence().State())

	loops := 0
	done := false
	for !done && loops < 20 {
		var err error
		done, err = mode.Loop(ctx)
		require.NoError(t, err)
		loops++
		if loops == 1 {
			require.Equal(t, PhaseLoop, mode.Phase())
			require.Contains(t, rec.Last(), telemetry.Line{Caption: "Running", Value: "drive 1.2m"})
			require.Contains(t, rec.Last(), telemetry.Line{Caption: "Running", Value: "close claw"})
		}
		clk.Advance(500 * time.Millisecond)
	}

	// Stage 0 ends on loop 3, the timer runs from loop 4 to 6, the last
	// claw job starts on loop 7 and finishes on loop 8.
	require.Equal(t, 8, loops)
	require.Equal(t, 500*time.Millisecond, clk.Delta())
	require.Contains(t, rec.Last(), telemetry.Line{Caption: "Status", Value: "complete"})

	st := mode.Status()
	require.True(t, st.Complete)
	require.Equal(t, "run-1", st.RunID)
	require.Equal(t, 3500*time.Millisecond, st.Elapsed)
	require.Equal(t, 90.0, first.heading)

	require.NoError(t, mode.Stop(ctx))
	require.Equal(t, PhaseStop, mode.Phase())

	calls := log.snapshot()
	require.Equal(t, []string{"drive.awake", "claw.awake", "drive.start"}, calls[:3])
	require.Equal(t, []string{"drive.stop", "claw.stop"}, calls[len(calls)-2:])
	require.Len(t, calls, 3+8+2)
}

func TestOpMode_RedAllianceMirrorsPlan(t *testing.T) {
	ctx := context.Background()
	log := &callLog{}
	d := &drivetrain{log: log}
	c := &claw{log: log}
	first := &driveJob{distance: 1.2, heading: 90, updates: 1}

	sel := alliance.NewSelector(alliance.Blue)
	mode, _, rec := newTestMode(t, matchPlan(d, c, first), []Behavior{d, c}, WithAlliance(sel))

	require.NoError(t, mode.Init(ctx))
	require.Equal(t, alliance.Red, mode.Alliance().Toggle())
	require.NoError(t, mode.InitLoop(ctx))
	require.Equal(t, telemetry.Line{Caption: "Alliance", Value: "red"}, rec.Last()[0])

	require.NoError(t, mode.Start(ctx))
	require.Equal(t, -90.0, first.heading)
}

func TestOpMode_OutOfOrderCalls(t *testing.T) {
	ctx := context.Background()
	mode, _, _ := newTestMode(t, func(b *auto.Builder) error { return nil }, nil)

	_, err := mode.Loop(ctx)
	require.ErrorIs(t, err, ErrInvalidPhase)
	require.ErrorIs(t, mode.Start(ctx), ErrInvalidPhase)
	require.ErrorIs(t, mode.InitLoop(ctx), ErrInvalidPhase)

	require.NoError(t, mode.Init(ctx))
	require.ErrorIs(t, mode.Init(ctx), ErrInvalidPhase)

	// InitLoop is optional.
	require.NoError(t, mode.Start(ctx))
	require.ErrorIs(t, mode.InitLoop(ctx), ErrInvalidPhase)

	done, err := mode.Loop(ctx)
	require.NoError(t, err)
	require.True(t, done, "empty plan completes on the first loop")

	require.NoError(t, mode.Stop(ctx))
	_, err = mode.Loop(ctx)
	require.ErrorIs(t, err, ErrInvalidPhase)
}

func TestOpMode_BuildFailureRefusesLoop(t *testing.T) {
	ctx := context.Background()
	log := &callLog{}
	d := &drivetrain{log: log}

	plan := func(b *auto.Builder) error {
		return b.Buffer(auto.Bind(d, &driveJob{distance: 1, updates: 1}))
	}
	mode, _, rec := newTestMode(t, plan, []Behavior{d})

	require.NoError(t, mode.Init(ctx))
	err := mode.Start(ctx)
	require.ErrorIs(t, err, auto.ErrMalformedPlan)
	require.Equal(t, api.StateFailed, mode.Status().State)
	require.Contains(t, rec.Last(), telemetry.Line{Caption: "Status", Value: "build failed"})

	_, err = mode.Loop(ctx)
	require.ErrorIs(t, err, ErrNotStarted)
	require.ErrorIs(t, err, auto.ErrMalformedPlan)

	require.NoError(t, mode.Stop(ctx))
	require.Contains(t, log.snapshot(), "drive.stop")
}

func TestOpMode_BehaviorErrorAbortsLoop(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("motor stalled")
	log := &callLog{}
	d := &drivetrain{log: log, updateErr: boom}
	c := &claw{log: log}

	mode, _, _ := newTestMode(t, matchPlan(d, c, &driveJob{distance: 1, updates: 1}), []Behavior{d, c})
	require.NoError(t, mode.Init(ctx))
	require.NoError(t, mode.Start(ctx))

	_, err := mode.Loop(ctx)
	require.ErrorIs(t, err, boom)
	require.Equal(t, api.StateBuilt, mode.Status().State, "sequence must not tick after a failed update")
}

// sloppyClaw finishes its job on every update without checking IsDone.
type sloppyClaw struct {
	BaseBehavior
	auto.Slot[*clawJob]
}

func (s *sloppyClaw) UpdateJob(ctx context.Context) error {
	job, _ := s.CurrentJob()
	return job.Finish()
}

func TestOpMode_DoubleFinishAbortsLoop(t *testing.T) {
	ctx := context.Background()
	s := &sloppyClaw{}
	job := &clawJob{}

	mode, _, _ := newTestMode(t, func(b *auto.Builder) error {
		return b.Execute(auto.Bind(s, job))
	}, []Behavior{s})
	require.NoError(t, mode.Init(ctx))
	require.NoError(t, mode.Start(ctx))

	done, err := mode.Loop(ctx)
	require.NoError(t, err)
	require.False(t, done)

	// Another subsystem finishes the job before the behavior sees it.
	require.NoError(t, job.Finish())
	_, err = mode.Loop(ctx)
	require.ErrorIs(t, err, auto.ErrAlreadyFinished)
}

func TestOpMode_StopIsIdempotentAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	log := &callLog{}
	first := errors.New("brake")
	d := &drivetrain{log: log, stopErr: first}
	c := &claw{log: log}

	mode, _, _ := newTestMode(t, nil, []Behavior{d, c})
	require.NoError(t, mode.Init(ctx))

	err := mode.Stop(ctx)
	require.ErrorIs(t, err, first)
	require.NoError(t, mode.Stop(ctx))
	require.Equal(t, []string{"drive.awake", "claw.awake", "drive.stop", "claw.stop"}, log.snapshot())
}

func TestOpMode_StopBeforeInitSkipsBehaviors(t *testing.T) {
	log := &callLog{}
	mode, _, _ := newTestMode(t, nil, []Behavior{&drivetrain{log: log}})
	require.NoError(t, mode.Stop(context.Background()))
	require.Empty(t, log.snapshot())
}

func TestOpMode_RunCompletesPlan(t *testing.T) {
	log := &callLog{}
	d := &drivetrain{log: log}
	c := &claw{log: log}

	plan := func(b *auto.Builder) error {
		if err := b.Execute(auto.Bind(d, &driveJob{distance: 0.5, updates: 3}), auto.Bind(c, &clawJob{})); err != nil {
			return err
		}
		if err := b.Wait(5 * time.Millisecond); err != nil {
			return err
		}
		return b.Execute(auto.Bind(c, &clawJob{open: true}))
	}
	mode := New("run", plan, []Behavior{d, c},
		WithLogger(discardLogger()),
		WithSink(&telemetry.Recorder{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, mode.Run(ctx, time.Millisecond))
	require.True(t, mode.Status().Complete)
	require.Equal(t, PhaseStop, mode.Phase())
	require.Contains(t, log.snapshot(), "claw.stop")
}

func TestOpMode_RunReturnsBuildError(t *testing.T) {
	log := &callLog{}
	mode := New("broken", func(b *auto.Builder) error { return b.Wait(-time.Second) },
		[]Behavior{&drivetrain{log: log}},
		WithLogger(discardLogger()),
		WithSink(&telemetry.Recorder{}),
	)

	err := mode.Run(context.Background(), time.Millisecond)
	require.ErrorIs(t, err, auto.ErrInvalidDuration)
	require.Equal(t, PhaseStop, mode.Phase())
	require.Contains(t, log.snapshot(), "drive.stop")
}

func TestPhase_String(t *testing.T) {
	require.Equal(t, "init_loop", PhaseInitLoop.String())
	require.Equal(t, "stop", PhaseStop.String())
	require.Equal(t, "Phase(42)", Phase(42).String())
}
