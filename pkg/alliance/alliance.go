// Package alliance models the alliance side a routine runs on.
//
// Plans are written for the blue side. On the red side directional jobs are
// mirrored at build time.
package alliance

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Side is an alliance color.
type Side int

const (
	Blue Side = iota
	Red
)

func (s Side) String() string {
	switch s {
	case Blue:
		return "blue"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Mirrored reports whether plans must be mirrored on this side.
func (s Side) Mirrored() bool {
	return s == Red
}

// Parse parses "blue" or "red", case-insensitively.
func Parse(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blue":
		return Blue, nil
	case "red":
		return Red, nil
	default:
		return Blue, fmt.Errorf("alliance: unknown side %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so sides can be read from
// configuration files and environment variables.
func (s *Side) UnmarshalText(text []byte) error {
	side, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Selector holds the side chosen during configuration. The operator may
// toggle it from the configuration loop while the control loop reads it.
type Selector struct {
	red atomic.Bool
}

// NewSelector returns a selector set to side.
func NewSelector(side Side) *Selector {
	s := &Selector{}
	s.Set(side)
	return s
}

func (s *Selector) Side() Side {
	if s.red.Load() {
		return Red
	}
	return Blue
}

func (s *Selector) Set(side Side) {
	s.red.Store(side == Red)
}

// Toggle switches to the other side and returns the new side.
func (s *Selector) Toggle() Side {
	for {
		old := s.red.Load()
		if s.red.CompareAndSwap(old, !old) {
			if old {
				return Blue
			}
			return Red
		}
	}
}

// Mirror reports whether the selected side is mirrored. It matches the
// signature expected by auto.WithMirror.
func (s *Selector) Mirror() bool {
	return s.Side().Mirrored()
}
