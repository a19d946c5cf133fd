package auto

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseJob_FinishOnce(t *testing.T) {
	var j BaseJob
	require.False(t, j.IsDone())

	require.NoError(t, j.Finish())
	require.True(t, j.IsDone())
}

func TestBaseJob_FinishTwiceFails(t *testing.T) {
	var j BaseJob
	require.NoError(t, j.Finish())

	err := j.Finish()
	require.ErrorIs(t, err, ErrAlreadyFinished)
	require.True(t, j.IsDone(), "a failed second Finish must not revert the job")
}

func TestSlot_AssignAndClear(t *testing.T) {
	b := &testBehavior{}
	_, ok := b.CurrentJob()
	require.False(t, ok)
	require.False(t, b.HasJob())

	j := newJob("drive")
	b.jobSlot().assign(j)
	got, ok := b.CurrentJob()
	require.True(t, ok)
	require.Same(t, j, got)

	b.jobSlot().clear()
	got, ok = b.CurrentJob()
	require.False(t, ok)
	require.Nil(t, got)
}

func TestSlot_AssignOverUnfinishedJobPanics(t *testing.T) {
	b := &testBehavior{}
	b.jobSlot().assign(newJob("first"))

	requirePanicsWithError(t, ErrSlotConflict, func() {
		b.jobSlot().assign(newJob("second"))
	})
}

func TestSlot_AssignOverFinishedJobIsAllowed(t *testing.T) {
	b := &testBehavior{}
	first := newJob("first")
	b.jobSlot().assign(first)
	require.NoError(t, first.Finish())

	second := newJob("second")
	require.NotPanics(t, func() { b.jobSlot().assign(second) })
	got, _ := b.CurrentJob()
	require.Same(t, second, got)
}

type failingBehavior struct {
	Slot[*testJob]
	err error
}

func (b *failingBehavior) UpdateJob(ctx context.Context) error {
	job, _ := b.CurrentJob()
	if err := job.Finish(); err != nil {
		return err
	}
	return b.err
}

func TestAdvance_OnlyUpdatesOccupiedSlots(t *testing.T) {
	ctx := context.Background()
	b := &testBehavior{}

	require.NoError(t, Advance(ctx, b))
	require.Zero(t, b.updates)

	b.jobSlot().assign(newJob("drive"))
	require.NoError(t, Advance(ctx, b))
	require.Equal(t, 1, b.updates)
}

func TestAdvance_PropagatesDoubleFinish(t *testing.T) {
	ctx := context.Background()
	b := &failingBehavior{}
	b.jobSlot().assign(newJob("drive"))

	require.NoError(t, Advance(ctx, b))
	err := Advance(ctx, b)
	require.True(t, errors.Is(err, ErrAlreadyFinished), "got %v", err)
}
