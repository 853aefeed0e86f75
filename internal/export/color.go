package export

import (
	"image/color"

	"SyncBoard/internal/state"
)

// ErrInvalidColor is returned for colors that are not #rrggbb or #rgb.
var ErrInvalidColor = state.ErrInvalidColor

// Background is the paper color. Erase strokes are painted with it.
var Background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// margin surrounds the drawing in both exports, in canvas units.
const margin = 20.0

// ParseHex parses a #rrggbb or #rgb color.
func ParseHex(s string) (color.NRGBA, error) {
	return state.ParseColor(s)
}

// inkOf is the color a stroke is painted with. Unparseable colors fall back
// to black.
func inkOf(s state.Stroke) color.NRGBA {
	if s.Mode == state.ModeErase {
		return Background
	}
	c, err := ParseHex(s.Color)
	if err != nil {
		return color.NRGBA{A: 255}
	}
	return c
}
