package api

import "time"

// State represents the lifecycle state of a job sequence.
type State string

const (
	StateIdle     State = "IDLE"
	StateBuilt    State = "BUILT"
	StateRunning  State = "RUNNING"
	StateComplete State = "COMPLETE"
	StateFailed   State = "FAILED"
)

// Clock is the time source consumed by the scheduler and the timer job.
//
// Elapsed must be monotonic and measured from the start of the current run.
type Clock interface {
	Elapsed() time.Duration
}

// RunInfo identifies one run of a built plan.
type RunInfo struct {
	ID      string
	Plan    string
	Stages  int
	Entries int
}

// StageInfo describes a stage of the plan. Index is 0-based.
type StageInfo struct {
	Index   int
	Entries int
}

// EntryInfo describes a single queue entry.
type EntryInfo struct {
	// Stage is the 0-based stage the entry belongs to.
	Stage int
	// Position is the entry's index in the flat queue, barriers included.
	Position int
	// Description is a human-readable description of the job.
	Description string
	// Timer is true for entries created by Wait.
	Timer bool
}

// Status is a read-only snapshot of a sequence, intended for status reporting.
type Status struct {
	RunID    string
	Plan     string
	State    State
	Complete bool

	// Stage is the 0-based index of the current stage. Once the run is
	// complete it equals Stages.
	Stage  int
	Stages int
	Cursor int

	// Active lists the descriptions of the entries of the current stage that
	// have not finished yet, in declaration order.
	Active []string

	Elapsed time.Duration
}
