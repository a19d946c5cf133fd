// Package auto implements the autonomous routine scheduler.
//
// A routine is declared once, as a plan of jobs bound to behaviors, and then
// driven forward one control tick at a time.
//
// # Jobs and behaviors
//
// A Job is a unit of work with a single completion flag. A behavior is a
// robot subsystem that hosts at most one active job at a time; it becomes an
// AutoBehavior by embedding Slot[J] for the job type J it accepts and
// implementing UpdateJob. The slot is read-only for behavior code: only the
// scheduler assigns and clears it.
//
// # Plans
//
// A plan is built by a PlanFunc from three primitives:
//
//   - Buffer adds a job to the current stage.
//   - Execute closes the current stage, optionally buffering jobs first.
//   - Wait adds a timer job and closes the stage.
//
// Jobs in the same stage run in parallel. A stage is done when every one of
// its jobs is done, and the next stage is not polled before that. A plan must
// end with a closed stage; Build rejects it otherwise.
//
// # Execution
//
// Sequence.Tick is called once per control cycle. The first poll of an entry
// starts its job (assigning it to the behavior slot and invoking OnJobAdded);
// every poll checks whether it finished. Finished entries are never started
// again.
package auto
