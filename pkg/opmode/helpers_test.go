package opmode

import (
	"context"
	"fmt"
	"sync"

	"github.com/petrijr/autoplan/pkg/auto"
)

// callLog records lifecycle hook calls across behaviors.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type driveJob struct {
	auto.BaseJob
	distance float64
	heading  float64
	updates  int
}

func (j *driveJob) Reverse()       { j.heading = -j.heading }
func (j *driveJob) String() string { return fmt.Sprintf("drive %.1fm", j.distance) }

type drivetrain struct {
	BaseBehavior
	auto.Slot[*driveJob]

	log       *callLog
	updateErr error
	stopErr   error
}

func (d *drivetrain) Awake(ctx context.Context) error { d.log.add("drive.awake"); return nil }
func (d *drivetrain) Start(ctx context.Context) error { d.log.add("drive.start"); return nil }

func (d *drivetrain) Update(ctx context.Context) error {
	d.log.add("drive.update")
	return d.updateErr
}

func (d *drivetrain) Stop(ctx context.Context) error {
	d.log.add("drive.stop")
	return d.stopErr
}

func (d *drivetrain) UpdateJob(ctx context.Context) error {
	job, ok := d.CurrentJob()
	if !ok || job.IsDone() {
		return nil
	}
	job.updates--
	if job.updates <= 0 {
		return job.Finish()
	}
	return nil
}

type clawJob struct {
	auto.BaseJob
	open bool
}

func (j *clawJob) String() string {
	if j.open {
		return "open claw"
	}
	return "close claw"
}

// claw finishes each job on its first update.
type claw struct {
	BaseBehavior
	auto.Slot[*clawJob]

	log *callLog
}

func (c *claw) Awake(ctx context.Context) error { c.log.add("claw.awake"); return nil }
func (c *claw) Stop(ctx context.Context) error  { c.log.add("claw.stop"); return nil }

func (c *claw) UpdateJob(ctx context.Context) error {
	job, ok := c.CurrentJob()
	if !ok || job.IsDone() {
		return nil
	}
	return job.Finish()
}
