package auto

import (
	"fmt"
	"time"

	"github.com/petrijr/autoplan/pkg/api"
)

// element is a queue element: either an *entry or a barrier.
type element interface {
	isElement()
}

// barrier closes a stage.
type barrier struct{}

func (barrier) isElement() {}

type entryState uint8

const (
	entryPending entryState = iota
	entryActive
	entryDone
)

func (s entryState) String() string {
	switch s {
	case entryPending:
		return "pending"
	case entryActive:
		return "active"
	case entryDone:
		return "done"
	default:
		return fmt.Sprintf("entryState(%d)", uint8(s))
	}
}

// task is the typed part of an entry.
type task interface {
	start()
	poll() bool
	String() string
}

type entry struct {
	task     task
	timer    bool
	state    entryState
	stage    int
	position int

	startedAt time.Duration
}

func (*entry) isElement() {}

func (e *entry) info() api.EntryInfo {
	return api.EntryInfo{
		Stage:       e.stage,
		Position:    e.position,
		Description: e.task.String(),
		Timer:       e.timer,
	}
}

// poll runs one step of the entry state machine. The task is started on the
// first poll only; a done entry never touches its task again.
func (e *entry) poll(clk api.Clock) (started, finished bool) {
	switch e.state {
	case entryPending:
		e.startedAt = clk.Elapsed()
		e.task.start()
		e.state = entryActive
		started = true
		fallthrough
	case entryActive:
		if e.task.poll() {
			e.state = entryDone
			finished = true
		}
	case entryDone:
	}
	return started, finished
}

// behaviorTask runs a job on a behavior slot.
type behaviorTask[J JobType] struct {
	behavior AutoBehavior[J]
	slot     *Slot[J]
	job      J
}

func (t *behaviorTask[J]) start() {
	t.slot.assign(t.job)
	t.behavior.OnJobAdded()
}

func (t *behaviorTask[J]) poll() bool {
	if !t.slot.holds(t.job) {
		current, _ := t.slot.CurrentJob()
		panic(fmt.Errorf("%w: polling %v while the behavior hosts %v", ErrSlotConflict, describe(t.job), describe(current)))
	}
	if !t.job.IsDone() {
		return false
	}
	t.slot.clear()
	return true
}

func (t *behaviorTask[J]) String() string {
	return describe(t.job)
}

// timerTask is the built-in wait job. It has no behavior.
type timerTask struct {
	clock     api.Clock
	duration  time.Duration
	startedAt time.Duration
}

func (t *timerTask) start() {
	t.startedAt = t.clock.Elapsed()
}

func (t *timerTask) poll() bool {
	return t.clock.Elapsed()-t.startedAt >= t.duration
}

func (t *timerTask) String() string {
	return fmt.Sprintf("waiting %s", t.duration)
}
