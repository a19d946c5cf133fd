package auto

import "context"

// AutoBehavior is a behavior that hosts jobs of type J. It is satisfied by
// any type that embeds Slot[J] and implements UpdateJob.
type AutoBehavior[J JobType] interface {
	// OnJobAdded is invoked once, synchronously, right after a job became
	// the active job.
	OnJobAdded()

	// UpdateJob advances the active job. It is only called while the slot
	// is occupied.
	UpdateJob(ctx context.Context) error

	jobSlot() *Slot[J]
}

// JobHost is the non-generic view of an AutoBehavior used by lifecycle
// drivers that hold behaviors of different job types.
type JobHost interface {
	HasJob() bool
	UpdateJob(ctx context.Context) error
}

// Advance calls UpdateJob on h if it hosts an active job.
func Advance(ctx context.Context, h JobHost) error {
	if !h.HasJob() {
		return nil
	}
	return h.UpdateJob(ctx)
}
