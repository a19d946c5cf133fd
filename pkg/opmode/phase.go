package opmode

import "fmt"

// Phase is the lifecycle position of an OpMode.
type Phase int32

const (
	PhaseInvalid Phase = iota
	PhaseInitialize
	PhaseInitLoop
	PhaseStart
	PhaseLoop
	PhaseStop
)

func (p Phase) String() string {
	switch p {
	case PhaseInvalid:
		return "invalid"
	case PhaseInitialize:
		return "initialize"
	case PhaseInitLoop:
		return "init_loop"
	case PhaseStart:
		return "start"
	case PhaseLoop:
		return "loop"
	case PhaseStop:
		return "stop"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}
