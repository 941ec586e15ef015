package shake

import "fmt"

// Axis identifies the dominant direction of a shake.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

func (a Axis) MarshalText() ([]byte, error) {
	if a < AxisX || a > AxisZ {
		return nil, fmt.Errorf("invalid axis %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "x", "X":
		*a = AxisX
	case "y", "Y":
		*a = AxisY
	case "z", "Z":
		*a = AxisZ
	default:
		return fmt.Errorf("invalid axis %q", string(b))
	}
	return nil
}

// State is the detector's position in the still/shaking state machine.
type State int

const (
	StateStill State = iota
	StateShaking
)

func (s State) String() string {
	if s == StateShaking {
		return "shaking"
	}
	return "still"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "still":
		*s = StateStill
	case "shaking":
		*s = StateShaking
	default:
		return fmt.Errorf("invalid detector state %q", string(b))
	}
	return nil
}

// Gesture is emitted once per completed shake.
type Gesture struct {
	Axis Axis `json:"axis"`
}
