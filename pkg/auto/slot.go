package auto

import "fmt"

// Slot holds the job currently hosted by a behavior. Embed it by value in a
// behavior to make the behavior an AutoBehavior for jobs of type J:
//
//	type Drivetrain struct {
//	    auto.Slot[*DriveJob]
//	    ...
//	}
//
// Behavior code may only read the slot. Assigning and clearing is reserved
// for the scheduler.
type Slot[J JobType] struct {
	job      J
	occupied bool
}

// CurrentJob returns the active job, if any.
func (s *Slot[J]) CurrentJob() (J, bool) {
	return s.job, s.occupied
}

// HasJob reports whether a job is active.
func (s *Slot[J]) HasJob() bool {
	return s.occupied
}

// OnJobAdded is the default no-op hook. Behaviors override it to capture
// per-job state when a job becomes active.
func (s *Slot[J]) OnJobAdded() {}

func (s *Slot[J]) jobSlot() *Slot[J] {
	return s
}

func (s *Slot[J]) holds(job J) bool {
	return s.occupied && s.job == job
}

// assign makes job the active job. The slot must be empty, hold job itself,
// or hold a job that already finished.
func (s *Slot[J]) assign(job J) {
	if s.occupied && s.job != job && !s.job.IsDone() {
		panic(fmt.Errorf("%w: active %v, assigning %v", ErrSlotConflict, describe(s.job), describe(job)))
	}
	s.job = job
	s.occupied = true
}

func (s *Slot[J]) clear() {
	var zero J
	s.job = zero
	s.occupied = false
}
