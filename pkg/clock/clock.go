// Package clock provides run clocks for the scheduler and the lifecycle
// driver.
package clock

import (
	"sync"
	"time"
)

// Run measures time since the start of a run. Readings are monotonic since
// they come from time.Since on a time.Now() value.
type Run struct {
	mu       sync.Mutex
	now      func() time.Time
	start    time.Time
	previous time.Time
}

// NewRun returns a clock started now.
func NewRun() *Run {
	return newRunAt(time.Now)
}

func newRunAt(now func() time.Time) *Run {
	c := &Run{now: now}
	c.Reset()
	return c
}

// Reset restarts the clock. The lifecycle driver calls it at the start of
// every run.
func (c *Run) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.now()
	c.previous = c.start
}

// Elapsed returns the time since the last Reset.
func (c *Run) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Sub(c.start)
}

// Delta returns the time since the last Mark, or since Reset if Mark was
// never called.
func (c *Run) Delta() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Sub(c.previous)
}

// Mark records the end of a control loop iteration.
func (c *Run) Mark() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previous = c.now()
}

// Manual is a clock that only moves when told to. It is meant for tests and
// simulations that step the control loop deterministically.
type Manual struct {
	mu       sync.Mutex
	elapsed  time.Duration
	previous time.Duration
}

// NewManual returns a manual clock reading zero.
func NewManual() *Manual {
	return &Manual{}
}

func (c *Manual) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed += d
}

// Set moves the clock to t if t is not before the current reading.
func (c *Manual) Set(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.elapsed {
		c.elapsed = t
	}
}

// Reset moves the clock back to zero.
func (c *Manual) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed = 0
	c.previous = 0
}

// Delta returns the time since the last Mark or Reset.
func (c *Manual) Delta() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed - c.previous
}

func (c *Manual) Mark() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previous = c.elapsed
}
