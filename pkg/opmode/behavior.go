package opmode

import "context"

// Behavior is a subsystem driven by the OpMode lifecycle. Awake runs during
// Init, Start when the match starts, Update once per loop before jobs are
// advanced, and Stop when the run ends.
//
// Behaviors that also embed auto.Slot are advanced by the OpMode after
// Update, via auto.Advance.
type Behavior interface {
	Awake(ctx context.Context) error
	Start(ctx context.Context) error
	Update(ctx context.Context) error
	Stop(ctx context.Context) error
}

// BaseBehavior provides no-op lifecycle hooks. Embed it and override the
// hooks you need.
type BaseBehavior struct{}

func (BaseBehavior) Awake(ctx context.Context) error  { return nil }
func (BaseBehavior) Start(ctx context.Context) error  { return nil }
func (BaseBehavior) Update(ctx context.Context) error { return nil }
func (BaseBehavior) Stop(ctx context.Context) error   { return nil }
