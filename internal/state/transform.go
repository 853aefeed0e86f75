package state

// Default viewport limits.
const (
	DefaultMinZoom  = 0.1
	DefaultMaxZoom  = 3.0
	DefaultZoomStep = 0.1
)

// ToCanvas maps a screen position into canvas space under zoom and pan.
func ToCanvas(screen Point, zoom float64, pan Point) Point {
	return Point{X: (screen.X - pan.X) / zoom, Y: (screen.Y - pan.Y) / zoom}
}

// ToScreen is the inverse of ToCanvas.
func ToScreen(canvas Point, zoom float64, pan Point) Point {
	return Point{X: canvas.X*zoom + pan.X, Y: canvas.Y*zoom + pan.Y}
}

// ClampZoom saturates z to [min, max].
func ClampZoom(z, min, max float64) float64 {
	if z < min {
		return min
	}
	if z > max {
		return max
	}
	return z
}

// Viewport holds the zoom and pan of one participant's view.
type Viewport struct {
	Zoom    float64
	Pan     Point
	MinZoom float64
	MaxZoom float64
	Step    float64
}

// NewViewport returns an unzoomed, unpanned viewport with the given zoom
// range. Out-of-order or non-positive bounds fall back to the defaults.
func NewViewport(minZoom, maxZoom, step float64) Viewport {
	if minZoom <= 0 || maxZoom < minZoom {
		minZoom, maxZoom = DefaultMinZoom, DefaultMaxZoom
	}
	if step <= 0 {
		step = DefaultZoomStep
	}
	return Viewport{
		Zoom:    ClampZoom(1, minZoom, maxZoom),
		MinZoom: minZoom,
		MaxZoom: maxZoom,
		Step:    step,
	}
}

func (v *Viewport) SetZoom(z float64) { v.Zoom = ClampZoom(z, v.MinZoom, v.MaxZoom) }
func (v *Viewport) ZoomIn()           { v.SetZoom(v.Zoom + v.Step) }
func (v *Viewport) ZoomOut()          { v.SetZoom(v.Zoom - v.Step) }

// PanBy moves the view by a screen-space delta scaled to the current zoom.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Pan.X -= dx / v.Zoom
	v.Pan.Y -= dy / v.Zoom
}

// Reset returns to zoom 1 with no pan.
func (v *Viewport) Reset() {
	v.Pan = Point{}
	v.SetZoom(1)
}

func (v Viewport) ToCanvas(screen Point) Point { return ToCanvas(screen, v.Zoom, v.Pan) }
func (v Viewport) ToScreen(canvas Point) Point { return ToScreen(canvas, v.Zoom, v.Pan) }
