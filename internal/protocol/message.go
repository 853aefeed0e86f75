package protocol

import (
	"errors"

	"SyncBoard/internal/state"
)

// Wire type tags.
const (
	TypeDrawing = "drawing"
	TypeClear   = "clear"
)

var (
	// ErrMalformedMessage marks a payload that cannot be decoded or that
	// violates the message schema.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnknownType marks a well-formed payload whose type tag this
	// version does not know. Receivers ignore it.
	ErrUnknownType = errors.New("unknown message type")
)

// Message is a DrawPoint or a Clear.
type Message interface {
	Type() string
	isMessage()
}

// DrawPoint is one point of a stroke. StrokeRef may be empty, in which case
// the receiver groups the point by sender.
type DrawPoint struct {
	StrokeRef string
	Point     state.Point
	Style     state.Style
}

// Clear empties every participant's canvas and history.
type Clear struct{}

func (DrawPoint) Type() string { return TypeDrawing }
func (Clear) Type() string     { return TypeClear }

func (DrawPoint) isMessage() {}
func (Clear) isMessage()     {}

// Reliability is the delivery class requested for an outbound message.
type Reliability int

const (
	// Lossy delivery may drop messages but never reorders those from one
	// sender.
	Lossy Reliability = iota
	// Reliable delivery never drops.
	Reliable
)

func (r Reliability) String() string {
	if r == Reliable {
		return "reliable"
	}
	return "lossy"
}

// ReliabilityFor picks the delivery class for m. Points tolerate loss;
// a lost clear would leave peers permanently diverged.
func ReliabilityFor(m Message) Reliability {
	if _, ok := m.(Clear); ok {
		return Reliable
	}
	return Lossy
}
