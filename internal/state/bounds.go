package state

// Rect is an axis-aligned box in canvas space.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds returns the box covering every point of strokes, padded by half of
// each stroke's width. The bool is false for an empty canvas.
func Bounds(strokes []Stroke) (Rect, bool) {
	var r Rect
	found := false
	for _, s := range strokes {
		pad := s.Width / 2
		for _, p := range s.Points {
			if !found {
				r = Rect{MinX: p.X - pad, MinY: p.Y - pad, MaxX: p.X + pad, MaxY: p.Y + pad}
				found = true
				continue
			}
			if p.X-pad < r.MinX {
				r.MinX = p.X - pad
			}
			if p.X+pad > r.MaxX {
				r.MaxX = p.X + pad
			}
			if p.Y-pad < r.MinY {
				r.MinY = p.Y - pad
			}
			if p.Y+pad > r.MaxY {
				r.MaxY = p.Y + pad
			}
		}
	}
	return r, found
}
