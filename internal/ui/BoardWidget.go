package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/export"
	"SyncBoard/internal/state"
)

// BoardWidget draws the engine's canvas and feeds it pointer input.
// Primary button strokes draw; secondary button drags and the wheel pan.
type BoardWidget struct {
	widget.BaseWidget
	engine *engine.Engine

	panning bool

	// OnChanged runs after every local edit.
	OnChanged func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

func NewBoardWidget(e *engine.Engine) *BoardWidget {
	b := &BoardWidget{engine: e}
	b.ExtendBaseWidget(b)
	return b
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (b *BoardWidget) changed() {
	b.Refresh()
	if b.OnChanged != nil {
		b.OnChanged()
	}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	switch e.Button {
	case desktop.MouseButtonPrimary:
		b.engine.HandleLocalPointer(engine.PointerDown, toPoint(e.Position))
		b.changed()
	case desktop.MouseButtonSecondary:
		b.panning = true
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	switch e.Button {
	case desktop.MouseButtonPrimary:
		if b.engine.Drawing() {
			b.engine.HandleLocalPointer(engine.PointerUp, toPoint(e.Position))
			b.changed()
		}
	case desktop.MouseButtonSecondary:
		b.panning = false
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.engine.Drawing() {
		b.engine.HandleLocalPointer(engine.PointerMove, toPoint(e.Position))
		b.Refresh()
		return
	}
	if b.panning {
		// Content follows the pointer.
		v := b.engine.Viewport()
		v.PanBy(-float64(e.Dragged.DX)*v.Zoom, -float64(e.Dragged.DY)*v.Zoom)
		b.Refresh()
	}
}

func (b *BoardWidget) DragEnd() {
	if b.engine.Drawing() {
		b.engine.HandleLocalPointer(engine.PointerUp, state.Point{})
		b.changed()
	}
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.engine.Viewport().PanBy(float64(e.Scrolled.DX), float64(e.Scrolled.DY))
	b.Refresh()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseOut()                      {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(export.Background)
	r.rebuild()
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

// rebuild regenerates the stroke objects from the engine's canvas.
func (r *boardWidgetRenderer) rebuild() {
	v := r.board.engine.Viewport()
	zoom := float32(v.Zoom)

	objects := []fyne.CanvasObject{r.background}
	for _, s := range r.board.engine.Canvas() {
		ink := strokeColor(s)
		width := float32(s.Width) * zoom

		if len(s.Points) == 1 {
			p := v.ToScreen(s.Points[0])
			dot := canvas.NewCircle(ink)
			dot.Position1 = fyne.NewPos(float32(p.X)-width/2, float32(p.Y)-width/2)
			dot.Position2 = fyne.NewPos(float32(p.X)+width/2, float32(p.Y)+width/2)
			objects = append(objects, dot)
			continue
		}
		for i := 0; i < len(s.Points)-1; i++ {
			from := v.ToScreen(s.Points[i])
			to := v.ToScreen(s.Points[i+1])
			segment := canvas.NewLine(ink)
			segment.StrokeWidth = width
			segment.Position1 = fyne.NewPos(float32(from.X), float32(from.Y))
			segment.Position2 = fyne.NewPos(float32(to.X), float32(to.Y))
			objects = append(objects, segment)
		}
	}
	r.objects = objects
}

func strokeColor(s state.Stroke) color.Color {
	if s.Mode == state.ModeErase {
		return export.Background
	}
	c, err := export.ParseHex(s.Color)
	if err != nil {
		return color.Black
	}
	return c
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *boardWidgetRenderer) Refresh() {
	r.rebuild()
	r.background.Refresh()
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Destroy() {}
func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}
func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}
