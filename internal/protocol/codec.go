package protocol

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"SyncBoard/internal/state"
)

// Codec turns messages into self-contained payloads and back.
type Codec interface {
	Name() string
	Encode(Message) ([]byte, error)
	Decode([]byte) (Message, error)
}

// wireMessage is the flat payload shape shared by every codec. Required
// numbers are pointers so a missing field is distinguishable from zero.
type wireMessage struct {
	Type      string   `json:"type"`
	StrokeRef string   `json:"strokeRef,omitempty"`
	OffsetX   *float64 `json:"offsetX,omitempty"`
	OffsetY   *float64 `json:"offsetY,omitempty"`
	Color     string   `json:"color,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Mode      string   `json:"mode,omitempty"`
}

func toWire(m Message) (wireMessage, error) {
	switch msg := m.(type) {
	case DrawPoint:
		x, y, width := msg.Point.X, msg.Point.Y, msg.Style.Width
		return wireMessage{
			Type:      TypeDrawing,
			StrokeRef: msg.StrokeRef,
			OffsetX:   &x,
			OffsetY:   &y,
			Color:     msg.Style.Color,
			Width:     &width,
			Mode:      msg.Style.Mode.String(),
		}, nil
	case Clear:
		return wireMessage{Type: TypeClear}, nil
	}
	return wireMessage{}, fmt.Errorf("cannot encode %T", m)
}

func fromWire(w wireMessage) (Message, error) {
	switch w.Type {
	case TypeClear:
		return Clear{}, nil
	case TypeDrawing:
		return drawPointFromWire(w)
	case "":
		return nil, fmt.Errorf("missing type: %w", ErrMalformedMessage)
	}
	return nil, fmt.Errorf("type %q: %w", w.Type, ErrUnknownType)
}

func drawPointFromWire(w wireMessage) (Message, error) {
	if w.OffsetX == nil || w.OffsetY == nil {
		return nil, fmt.Errorf("drawing without coordinates: %w", ErrMalformedMessage)
	}
	if !finite(*w.OffsetX) || !finite(*w.OffsetY) {
		return nil, fmt.Errorf("drawing with non-finite coordinates: %w", ErrMalformedMessage)
	}
	if w.Width == nil || !finite(*w.Width) || *w.Width <= 0 {
		return nil, fmt.Errorf("drawing without a positive width: %w", ErrMalformedMessage)
	}
	if w.Color == "" {
		return nil, fmt.Errorf("drawing without a color: %w", ErrMalformedMessage)
	}
	if _, err := state.ParseColor(w.Color); err != nil {
		return nil, fmt.Errorf("drawing: %v: %w", err, ErrMalformedMessage)
	}
	mode, err := state.ParseMode(w.Mode)
	if err != nil {
		return nil, fmt.Errorf("drawing: %v: %w", err, ErrMalformedMessage)
	}
	return DrawPoint{
		StrokeRef: w.StrokeRef,
		Point:     state.Point{X: *w.OffsetX, Y: *w.OffsetY},
		Style:     state.Style{Color: w.Color, Width: *w.Width, Mode: mode},
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// JSONCodec is the default text encoding.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(m Message) ([]byte, error) {
	w, err := toWire(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (JSONCodec) Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedMessage)
	}
	return fromWire(w)
}

// cborEnc uses Core Deterministic Encoding so equal messages produce equal
// bytes.
var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}
}

// CBORCodec carries the same fields as JSONCodec in CBOR.
type CBORCodec struct{}

func (CBORCodec) Name() string { return "cbor" }

func (CBORCodec) Encode(m Message) ([]byte, error) {
	w, err := toWire(m)
	if err != nil {
		return nil, err
	}
	return cborEnc.Marshal(w)
}

func (CBORCodec) Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedMessage)
	}
	return fromWire(w)
}

// CodecByName resolves a configured codec name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return CBORCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
