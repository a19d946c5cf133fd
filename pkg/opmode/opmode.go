// Package opmode drives an autonomous plan through the match lifecycle.
//
// An OpMode owns the behaviors of the robot and the job sequence built from
// a plan. The host calls Init and InitLoop while waiting for the match,
// Start when it begins, Loop once per control cycle and Stop at the end.
// Run and Runner do all of that on a ticker.
package opmode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/petrijr/autoplan/pkg/alliance"
	"github.com/petrijr/autoplan/pkg/api"
	"github.com/petrijr/autoplan/pkg/auto"
	"github.com/petrijr/autoplan/pkg/clock"
	"github.com/petrijr/autoplan/pkg/telemetry"
)

var (
	// ErrInvalidPhase is returned when a lifecycle method is called out of
	// order.
	ErrInvalidPhase = errors.New("autoplan: lifecycle method called in wrong phase")

	// ErrNotStarted is returned by Loop when Start failed.
	ErrNotStarted = errors.New("autoplan: opmode did not start")
)

// Clock is the run clock shared by the driver and the sequence.
// clock.Run and clock.Manual implement it.
type Clock interface {
	api.Clock
	Reset()
	Delta() time.Duration
	Mark()
}

// Option configures an OpMode.
type Option func(*OpMode)

func WithClock(c Clock) Option {
	return func(o *OpMode) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithAlliance sets the selector that decides whether the plan is mirrored.
// The default is a Blue selector.
func WithAlliance(sel *alliance.Selector) Option {
	return func(o *OpMode) {
		if sel != nil {
			o.selector = sel
		}
	}
}

func WithObserver(obs api.Observer) Option {
	return func(o *OpMode) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *OpMode) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSink sets the telemetry sink. The default is a LogSink on the
// OpMode's logger.
func WithSink(sink telemetry.Sink) Option {
	return func(o *OpMode) {
		o.sink = sink
	}
}

// WithSequenceOptions passes extra options to the sequence built at Start.
func WithSequenceOptions(opts ...auto.Option) Option {
	return func(o *OpMode) {
		o.seqOpts = append(o.seqOpts, opts...)
	}
}

// OpMode runs one autonomous plan. It is single-use: after Stop it cannot
// be started again.
//
// Lifecycle methods must be called from a single goroutine. Phase may be
// read from any goroutine.
type OpMode struct {
	name      string
	plan      auto.PlanFunc
	behaviors []Behavior
	clock     Clock
	selector  *alliance.Selector
	observer  api.Observer
	logger    *slog.Logger
	sink      telemetry.Sink
	seqOpts   []auto.Option

	phase    atomic.Int32
	seq      *auto.Sequence
	startErr error
	awake    bool
}

// New creates an OpMode for the named plan.
func New(name string, plan auto.PlanFunc, behaviors []Behavior, opts ...Option) *OpMode {
	o := &OpMode{
		name:      name,
		plan:      plan,
		behaviors: behaviors,
		observer:  api.NoopObserver{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = clock.NewRun()
	}
	if o.selector == nil {
		o.selector = alliance.NewSelector(alliance.Blue)
	}
	if o.sink == nil {
		o.sink = telemetry.NewLogSink(o.logger, 4)
	}
	return o
}

func (o *OpMode) Name() string {
	return o.name
}

func (o *OpMode) Phase() Phase {
	return Phase(o.phase.Load())
}

// Alliance returns the selector so the configuration loop can toggle it.
func (o *OpMode) Alliance() *alliance.Selector {
	return o.selector
}

// Sequence returns the sequence built at Start, or nil before Start.
func (o *OpMode) Sequence() *auto.Sequence {
	return o.seq
}

// Status returns the sequence status. Before Start it reports an idle run.
func (o *OpMode) Status() api.Status {
	if o.seq == nil {
		return api.Status{Plan: o.name, State: api.StateIdle}
	}
	return o.seq.Status()
}

func (o *OpMode) enter(ctx context.Context, p Phase) {
	o.phase.Store(int32(p))
	o.logger.DebugContext(ctx, "opmode_phase",
		slog.String("plan", o.name),
		slog.String("phase", p.String()),
	)
}

func (o *OpMode) expect(allowed ...Phase) error {
	cur := o.Phase()
	for _, p := range allowed {
		if cur == p {
			return nil
		}
	}
	return fmt.Errorf("%w: in %s", ErrInvalidPhase, cur)
}

// Init wakes every behavior.
func (o *OpMode) Init(ctx context.Context) error {
	if err := o.expect(PhaseInvalid); err != nil {
		return err
	}
	o.enter(ctx, PhaseInitialize)
	o.awake = true
	for _, b := range o.behaviors {
		if err := b.Awake(ctx); err != nil {
			return fmt.Errorf("awake behavior %T: %w", b, err)
		}
	}
	return nil
}

// InitLoop runs while waiting for the match to start and reports the
// selected alliance. It may be called repeatedly.
func (o *OpMode) InitLoop(ctx context.Context) error {
	if err := o.expect(PhaseInitialize, PhaseInitLoop); err != nil {
		return err
	}
	if o.Phase() != PhaseInitLoop {
		o.enter(ctx, PhaseInitLoop)
	}
	o.sink.AddData("Alliance", o.selector.Side())
	o.sink.AddData("Plan", o.name)
	o.sink.Update(ctx)
	return nil
}

// Start resets the clock, starts every behavior and builds the sequence.
// If the plan is rejected the error is returned and every later Loop fails
// with ErrNotStarted.
func (o *OpMode) Start(ctx context.Context) error {
	if err := o.expect(PhaseInitialize, PhaseInitLoop); err != nil {
		return err
	}
	o.enter(ctx, PhaseStart)
	o.clock.Reset()

	for _, b := range o.behaviors {
		if err := b.Start(ctx); err != nil {
			o.startErr = fmt.Errorf("start behavior %T: %w", b, err)
			return o.startErr
		}
	}

	opts := append([]auto.Option{
		auto.WithClock(o.clock),
		auto.WithMirror(o.selector.Mirror),
		auto.WithObserver(o.observer),
	}, o.seqOpts...)
	o.seq = auto.New(o.name, o.plan, opts...)
	if err := o.seq.Build(ctx); err != nil {
		o.startErr = err
		o.logger.ErrorContext(ctx, "plan_rejected",
			slog.String("plan", o.name),
			slog.String("alliance", o.selector.Side().String()),
			slog.Any("error", err),
		)
		telemetry.ReportStatus(o.sink, o.seq.Status())
		o.sink.Update(ctx)
		return err
	}
	return nil
}

// Loop runs one control cycle: behaviors update, occupied slots advance
// their jobs, the sequence ticks and status is reported. It returns true
// once the plan is complete.
func (o *OpMode) Loop(ctx context.Context) (bool, error) {
	if err := o.expect(PhaseStart, PhaseLoop); err != nil {
		return false, err
	}
	if o.startErr != nil {
		return false, fmt.Errorf("%w: %w", ErrNotStarted, o.startErr)
	}
	if o.Phase() != PhaseLoop {
		o.enter(ctx, PhaseLoop)
	}
	defer o.clock.Mark()

	for _, b := range o.behaviors {
		if err := b.Update(ctx); err != nil {
			return false, fmt.Errorf("update behavior %T: %w", b, err)
		}
	}
	for _, b := range o.behaviors {
		if h, ok := b.(auto.JobHost); ok {
			if err := auto.Advance(ctx, h); err != nil {
				return false, fmt.Errorf("advance behavior %T: %w", b, err)
			}
		}
	}

	done, err := o.seq.Tick(ctx)
	if err != nil {
		return false, err
	}
	telemetry.ReportStatus(o.sink, o.seq.Status())
	o.sink.Update(ctx)
	return done, nil
}

// Stop stops every behavior that was woken. It is idempotent. Errors from
// individual behaviors are joined.
func (o *OpMode) Stop(ctx context.Context) error {
	if o.Phase() == PhaseStop {
		return nil
	}
	o.enter(ctx, PhaseStop)
	if !o.awake {
		return nil
	}
	var errs []error
	for _, b := range o.behaviors {
		if err := b.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop behavior %T: %w", b, err))
		}
	}
	return errors.Join(errs...)
}

// Run drives the full lifecycle: Init, one InitLoop, Start, then Loop on
// every tick of interval until the plan completes, ctx is done or a cycle
// fails. Stop is always called before Run returns.
func (o *OpMode) Run(ctx context.Context, interval time.Duration) (err error) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	defer func() {
		// Stop must run even when ctx is already cancelled.
		stopErr := o.Stop(context.WithoutCancel(ctx))
		err = errors.Join(err, stopErr)
	}()

	if err := o.Init(ctx); err != nil {
		return err
	}
	if err := o.InitLoop(ctx); err != nil {
		return err
	}
	if err := o.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		done, err := o.Loop(ctx)
		if err != nil {
			return err
		}
		if done {
			o.logger.InfoContext(ctx, "plan_complete",
				slog.String("plan", o.name),
				slog.Duration("elapsed", o.clock.Elapsed()),
			)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
