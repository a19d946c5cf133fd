package auto

import (
	"fmt"
	"time"
)

// Builder collects the entries and barriers of a plan. It is only valid
// inside the PlanFunc passed to New:
//
//	seq := auto.New("left-side", func(b *auto.Builder) error {
//	    b.Buffer(auto.Bind(drive, &DriveJob{Distance: 1.2}))
//	    b.Buffer(auto.Bind(lift, &LiftJob{Height: 0.4}))
//	    b.Execute()
//	    b.Wait(500 * time.Millisecond)
//	    return b.Execute(auto.Bind(claw, &ClawJob{Open: true}))
//	})
//
// The first error aborts the build: every later call returns it, and Build
// reports it even when the PlanFunc ignores the return values.
type Builder struct {
	seq  *Sequence
	open bool
	err  error

	elements   []element
	stageSizes []int
	pending    int
	owners     map[any]struct{}
	reversed   map[Job]struct{}
}

func newBuilder(seq *Sequence) *Builder {
	return &Builder{
		seq:    seq,
		open:   true,
		owners:   make(map[any]struct{}),
		reversed: make(map[Job]struct{}),
	}
}

// Buffer appends a job to the current stage without closing it. Jobs
// buffered together run in parallel.
func (b *Builder) Buffer(bind Binding) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.fail(b.buffer(bind))
}

// Execute buffers the given bindings and then closes the current stage.
//
// With no arguments it only closes the stage, which must then hold at least
// one buffered job. With a single binding the job becomes the sole occupant
// of its own stage, unless other jobs were buffered before.
func (b *Builder) Execute(binds ...Binding) error {
	if err := b.check(); err != nil {
		return err
	}
	for _, bind := range binds {
		if err := b.buffer(bind); err != nil {
			return b.fail(err)
		}
	}
	return b.fail(b.barrier())
}

// Wait appends a timer job that completes once d has elapsed since it was
// first polled, then closes the stage.
func (b *Builder) Wait(d time.Duration) error {
	if err := b.check(); err != nil {
		return err
	}
	if d < 0 {
		return b.fail(fmt.Errorf("%w: %s", ErrInvalidDuration, d))
	}
	b.appendEntry(&timerTask{clock: b.seq.clock, duration: d}, true)
	return b.fail(b.barrier())
}

func (b *Builder) check() error {
	if !b.open {
		return ErrInvalidBuildState
	}
	return b.err
}

func (b *Builder) fail(err error) error {
	if err != nil && b.err == nil {
		b.err = err
	}
	return err
}

func (b *Builder) buffer(bind Binding) error {
	if bind.err != nil {
		return bind.err
	}
	if bind.task == nil {
		return ErrInvalidBinding
	}
	if _, dup := b.owners[bind.owner]; dup {
		return fmt.Errorf("%w: stage %d, job %s", ErrDuplicateBehavior, len(b.stageSizes), describe(bind.job))
	}
	if !bind.skipMirror && b.seq.mirrored() {
		b.reverse(bind.job)
	}
	b.owners[bind.owner] = struct{}{}
	b.appendEntry(bind.task, false)
	return nil
}

// reverse mirrors job unless an earlier binding of the same job already did.
func (b *Builder) reverse(job Job) {
	m, ok := job.(Mirrorable)
	if !ok {
		return
	}
	if _, done := b.reversed[job]; done {
		return
	}
	b.reversed[job] = struct{}{}
	m.Reverse()
}

func (b *Builder) appendEntry(t task, timer bool) {
	b.elements = append(b.elements, &entry{
		task:     t,
		timer:    timer,
		stage:    len(b.stageSizes),
		position: len(b.elements),
	})
	b.pending++
}

func (b *Builder) barrier() error {
	if b.pending == 0 {
		return fmt.Errorf("%w: stage %d", ErrEmptyStage, len(b.stageSizes))
	}
	b.elements = append(b.elements, barrier{})
	b.stageSizes = append(b.stageSizes, b.pending)
	b.pending = 0
	clear(b.owners)
	return nil
}

// close ends the build window and validates the plan shape.
func (b *Builder) close() error {
	b.open = false
	if b.err != nil {
		return b.err
	}
	if len(b.elements) == 0 {
		return nil
	}
	if _, ok := b.elements[len(b.elements)-1].(barrier); !ok {
		return fmt.Errorf("%w: %d job(s) buffered after the last barrier", ErrMalformedPlan, b.pending)
	}
	return nil
}
