package state

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a stroke operation does not match the
// board's current stroke lifecycle.
var ErrInvalidState = errors.New("invalid stroke state")

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mode selects whether a stroke paints or erases.
type Mode int

const (
	ModeDraw Mode = iota
	ModeErase
)

func (m Mode) String() string {
	switch m {
	case ModeErase:
		return "erase"
	default:
		return "draw"
	}
}

// ParseMode converts the wire name of a mode. An empty name means draw.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "draw":
		return ModeDraw, nil
	case "erase":
		return ModeErase, nil
	}
	return ModeDraw, fmt.Errorf("unknown mode %q", s)
}

// Style is the paint applied to every segment of a stroke.
type Style struct {
	Color string
	Width float64
	Mode  Mode
}

// Stroke is one pointer-down to pointer-up gesture. Owner is the sender
// attribution reported by the transport; it is empty for local strokes.
type Stroke struct {
	Ref    string
	Owner  string
	Points []Point
	Style
}

// clone returns a copy whose point slice cannot be grown in place by later
// appends on the original.
func (s Stroke) clone() Stroke {
	s.Points = s.Points[:len(s.Points):len(s.Points)]
	return s
}

// RefState is the lifecycle position of a stroke reference.
type RefState int

const (
	RefUnseen RefState = iota
	RefActive
	RefFrozen
)

func (r RefState) String() string {
	switch r {
	case RefActive:
		return "active"
	case RefFrozen:
		return "frozen"
	default:
		return "unseen"
	}
}
