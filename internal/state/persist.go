package state

import (
	"encoding/json"
	"fmt"
)

type savedCanvas struct {
	Strokes []savedStroke `json:"strokes"`
}

type savedStroke struct {
	Ref    string  `json:"ref,omitempty"`
	Owner  string  `json:"owner,omitempty"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Mode   string  `json:"mode"`
}

// MarshalCanvas serializes a canvas for session storage.
func MarshalCanvas(strokes []Stroke) ([]byte, error) {
	saved := savedCanvas{Strokes: make([]savedStroke, 0, len(strokes))}
	for _, s := range strokes {
		saved.Strokes = append(saved.Strokes, savedStroke{
			Ref:    s.Ref,
			Owner:  s.Owner,
			Points: s.Points,
			Color:  s.Color,
			Width:  s.Width,
			Mode:   s.Mode.String(),
		})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canvas: %w", err)
	}
	return data, nil
}

// UnmarshalCanvas parses data produced by MarshalCanvas.
func UnmarshalCanvas(data []byte) ([]Stroke, error) {
	var saved savedCanvas
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal canvas: %w", err)
	}
	if len(saved.Strokes) == 0 {
		return nil, nil
	}
	strokes := make([]Stroke, 0, len(saved.Strokes))
	for i, s := range saved.Strokes {
		if len(s.Points) == 0 {
			return nil, fmt.Errorf("stroke %d has no points", i)
		}
		if s.Width <= 0 {
			return nil, fmt.Errorf("stroke %d has width %v", i, s.Width)
		}
		mode, err := ParseMode(s.Mode)
		if err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
		strokes = append(strokes, Stroke{
			Ref:    s.Ref,
			Owner:  s.Owner,
			Points: s.Points,
			Style:  Style{Color: s.Color, Width: s.Width, Mode: mode},
		})
	}
	return strokes, nil
}
