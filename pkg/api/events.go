package api

import "time"

// EventType identifies a run history event.
type EventType string

const (
	EventRunBuilt       EventType = "run.built"
	EventRunBuildFailed EventType = "run.build_failed"
	EventRunStarted     EventType = "run.started"
	EventRunCompleted   EventType = "run.completed"

	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"

	EventEntryStarted  EventType = "entry.started"
	EventEntryFinished EventType = "entry.finished"
)

// RunEvent is a minimal append-only history record of a run, kept for
// post-match review. It is never used to restore a run.
type RunEvent struct {
	RunID string
	At    time.Time
	Type  EventType

	Plan string
	// Stage is -1 for run-level events.
	Stage int
	// Entry is the queue position, or -1 when not applicable.
	Entry int

	// Duration is set on completion events: how long the entry, stage or
	// run took on the run clock.
	Duration time.Duration

	// Small, human-oriented details (job description, error string).
	Detail string
}
