// Package autoplan is a tick-driven scheduler for autonomous robot routines.
//
// A routine is written once, as a plan of jobs grouped into stages. Jobs in
// a stage run in parallel, each on the behavior (subsystem) that hosts it;
// the next stage starts only when every job of the current one is done.
// The scheduler never blocks: the host's control loop calls Tick once per
// cycle and the scheduler starts, polls and retires jobs.
//
// # Core Concepts
//
//  1. Job
//  2. Behavior and Slot
//  3. Builder and Binding
//  4. Sequence
//
// # Job
//
// A Job is a unit of work with a completion flag. Embed BaseJob to get
// IsDone and a one-shot Finish. Jobs whose direction depends on the
// alliance side implement Mirrorable; they are reversed once at build time
// when the plan runs mirrored.
//
// # Behavior and Slot
//
// A behavior embeds Slot[J] to host at most one job of type J. The scheduler
// places jobs in the slot and clears it when the job finishes; the behavior
// only reads it, through CurrentJob and HasJob, and works on the job from
// UpdateJob. Advance calls UpdateJob when the slot is occupied.
//
//	type Lift struct {
//		autoplan.Slot[*LiftJob]
//		motor Motor
//	}
//
//	func (l *Lift) UpdateJob(ctx context.Context) error {
//		job, _ := l.CurrentJob()
//		if l.motor.AtTarget(job.Height) {
//			return job.Finish()
//		}
//		return nil
//	}
//
// # Builder and Binding
//
// Bind pairs a behavior with a job it can host. Inside the plan callback,
// Buffer adds a binding to the open stage, Execute adds bindings and closes
// the stage, and Wait adds a timer stage:
//
//	plan := func(b *autoplan.Builder) error {
//		if err := b.Execute(autoplan.Bind(drive, driveTo(1.2)), autoplan.Bind(lift, raise(0.5))); err != nil {
//			return err
//		}
//		if err := b.Wait(500 * time.Millisecond); err != nil {
//			return err
//		}
//		return b.Execute(autoplan.Bind(claw, open()))
//	}
//
// Builder errors are sticky and surface from Sequence.Build.
//
// # Sequence
//
// New creates a Sequence for a plan. Build runs the plan callback once and
// validates the queue; Tick advances it one control cycle and reports
// completion. Status returns a snapshot for telemetry.
//
// Sequences report build, stage and entry events to an Observer. The
// package provides logging, in-memory metrics and a run history Recorder
// backed by memory, SQLite, PostgreSQL, Redis or MongoDB; pkg/metrics adds
// Prometheus.
//
// The opmode package drives a Sequence through a match: it wakes and starts
// behaviors, builds the plan with the selected alliance, and runs the
// control loop on a ticker.
package autoplan
