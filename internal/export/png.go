package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fogleman/gg"

	"SyncBoard/internal/state"
)

// blankSize is the edge of the image produced for an empty canvas.
const blankSize = 64

// WritePNG renders strokes at one pixel per canvas unit, cropped to the
// drawing plus a margin, and encodes the image to w.
func WritePNG(w io.Writer, strokes []state.Stroke) error {
	dc := render(strokes)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// PNG writes strokes to a PNG file at path.
func PNG(path string, strokes []state.Stroke) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WritePNG(f, strokes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func render(strokes []state.Stroke) *gg.Context {
	r, ok := state.Bounds(strokes)
	if !ok {
		dc := gg.NewContext(blankSize, blankSize)
		dc.SetColor(Background)
		dc.Clear()
		return dc
	}

	originX := math.Floor(r.MinX - margin)
	originY := math.Floor(r.MinY - margin)
	width := int(math.Ceil(r.MaxX+margin) - originX)
	height := int(math.Ceil(r.MaxY+margin) - originY)

	dc := gg.NewContext(width, height)
	dc.SetColor(Background)
	dc.Clear()
	dc.Translate(-originX, -originY)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, s := range strokes {
		dc.SetColor(inkOf(s))
		if len(s.Points) == 1 {
			dc.DrawCircle(s.Points[0].X, s.Points[0].Y, s.Width/2)
			dc.Fill()
			continue
		}
		dc.SetLineWidth(s.Width)
		dc.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}
	return dc
}
