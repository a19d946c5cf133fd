// Package api contains the types shared by the autoplan scheduler, its
// lifecycle driver and its observers. It holds no scheduling logic.
//
// # Runs
//
// A run is one execution of a built plan. RunInfo identifies it, StageInfo
// and EntryInfo describe its parts, and Status is the read-only snapshot a
// status surface renders once per tick.
//
// # Clock
//
// The scheduler measures time through Clock, which reports the elapsed time
// since the start of the run. The clock package provides implementations.
//
// # Observability
//
// The Observer interface is called by the scheduler on build, stage and
// entry transitions. Observers can be used to:
//
//   - Log run transitions (LoggingObserver)
//   - Collect counters (BasicMetrics)
//   - Record run history for post-match review
//   - Export metrics to external monitoring systems
//
// NewCompositeObserver combines several of them.
package api
