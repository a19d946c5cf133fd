package auto

// Job is a unit of autonomous work with a single completion flag.
//
// A job is handed to exactly one behavior through a Binding. The behavior
// advances it in UpdateJob and calls Finish once the work is done.
type Job interface {
	IsDone() bool
	Finish() error
}

// JobType constrains the job type a behavior hosts. The scheduler tracks jobs
// by identity, so the type must be comparable. Pointer jobs always are.
type JobType interface {
	Job
	comparable
}

// Mirrorable is implemented by jobs with directional parameters that must be
// flipped when the plan runs on the mirrored alliance side.
//
// Reverse is called at most once, at build time, before the job is ever
// started. Calling it after the job started is a contract violation that is
// not detected.
type Mirrorable interface {
	Job
	Reverse()
}

// BaseJob implements Job. Embed it in concrete job types:
//
//	type DriveJob struct {
//	    auto.BaseJob
//	    Distance float64
//	}
type BaseJob struct {
	done bool
}

// IsDone reports whether Finish has been called.
func (j *BaseJob) IsDone() bool {
	return j.done
}

// Finish marks the job as done. A second call returns ErrAlreadyFinished and
// leaves the job done.
func (j *BaseJob) Finish() error {
	if j.done {
		return ErrAlreadyFinished
	}
	j.done = true
	return nil
}
