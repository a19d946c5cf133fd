package auto

import "errors"

var (
	// ErrInvalidBuildState is returned when a queue primitive is used outside
	// the plan callback.
	ErrInvalidBuildState = errors.New("autoplan: jobs can only be queued inside the plan callback")

	// ErrEmptyStage is returned when a stage is closed with no entries
	// buffered since the previous barrier.
	ErrEmptyStage = errors.New("autoplan: cannot execute without buffering a job")

	// ErrMalformedPlan is returned by Build when the plan does not end with a
	// barrier.
	ErrMalformedPlan = errors.New("autoplan: plan does not end with an execute barrier")

	// ErrAlreadyFinished is returned when Finish is called on a finished job.
	ErrAlreadyFinished = errors.New("autoplan: job is already finished")

	// ErrSlotConflict signals that the scheduler tried to start a job on a
	// behavior that still hosts a different unfinished job. It is only ever
	// raised through a panic.
	ErrSlotConflict = errors.New("autoplan: behavior already hosts a different job")

	// ErrDuplicateBehavior is returned when a single stage binds the same
	// behavior more than once.
	ErrDuplicateBehavior = errors.New("autoplan: stage binds the same behavior twice")

	// ErrInvalidBinding is returned for bindings with a nil behavior or job.
	ErrInvalidBinding = errors.New("autoplan: binding requires a behavior and a job")

	// ErrInvalidDuration is returned by Wait for negative durations.
	ErrInvalidDuration = errors.New("autoplan: wait duration must not be negative")

	// ErrNotBuilt is returned by Tick before Build.
	ErrNotBuilt = errors.New("autoplan: sequence has not been built")

	// ErrAlreadyBuilt is returned by a second or nested call to Build.
	ErrAlreadyBuilt = errors.New("autoplan: sequence has already been built")
)
