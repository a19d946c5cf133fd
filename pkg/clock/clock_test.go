package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func TestRun_ElapsedAndDelta(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	c := newRunAt(ft.now)

	ft.t = ft.t.Add(150 * time.Millisecond)
	require.Equal(t, 150*time.Millisecond, c.Elapsed())
	require.Equal(t, 150*time.Millisecond, c.Delta())

	c.Mark()
	ft.t = ft.t.Add(20 * time.Millisecond)
	require.Equal(t, 170*time.Millisecond, c.Elapsed())
	require.Equal(t, 20*time.Millisecond, c.Delta())
}

func TestRun_ResetRestartsFromZero(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	c := newRunAt(ft.now)

	ft.t = ft.t.Add(time.Second)
	c.Reset()
	require.Zero(t, c.Elapsed())
	require.Zero(t, c.Delta())
}

func TestNewRun_IsMonotonic(t *testing.T) {
	c := NewRun()
	a := c.Elapsed()
	b := c.Elapsed()
	require.GreaterOrEqual(t, b, a)
}

func TestManual(t *testing.T) {
	c := NewManual()
	require.Zero(t, c.Elapsed())

	c.Advance(time.Second)
	c.Advance(-time.Second)
	require.Equal(t, time.Second, c.Elapsed())

	c.Set(500 * time.Millisecond)
	require.Equal(t, time.Second, c.Elapsed(), "Set must not move the clock backwards")

	c.Set(3 * time.Second)
	require.Equal(t, 3*time.Second, c.Elapsed())
}

func TestManual_DeltaAndReset(t *testing.T) {
	c := NewManual()
	c.Advance(2 * time.Second)
	require.Equal(t, 2*time.Second, c.Delta())

	c.Mark()
	c.Advance(250 * time.Millisecond)
	require.Equal(t, 250*time.Millisecond, c.Delta())

	c.Reset()
	require.Zero(t, c.Elapsed())
	require.Zero(t, c.Delta())
}
