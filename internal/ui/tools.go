package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/export"
	"SyncBoard/internal/state"
)

// palette is the set of swatches offered in the toolbar.
var palette = []string{"#000000", "#df4b26", "#2e7d32", "#1565c0", "#f9a825", "#6a1b9a"}

type colorSwatch struct {
	widget.BaseWidget
	Hex      string
	OnTapped func(hex string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	var fill color.Color = color.Black
	if c, err := export.ParseHex(s.Hex); err == nil {
		fill = c
	}
	rect := canvas.NewRectangle(fill)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

// NewToolbar builds the tool, color, width, history, view and file
// controls for a.
func NewToolbar(a *App) fyne.CanvasObject {
	eng := a.engine

	zoomLabel := widget.NewLabel("")
	updateZoom := func() {
		zoomLabel.SetText(fmt.Sprintf("%d%%", int(eng.Viewport().Zoom*100+0.5)))
		a.board.Refresh()
	}
	updateZoom()

	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			eng.SetMode(state.ModeDraw)
			a.SetStatus("Pen")
		}),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			eng.SetMode(state.ModeErase)
			a.SetStatus("Eraser")
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() {
			eng.Undo()
			a.board.changed()
		}),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() {
			eng.Redo()
			a.board.changed()
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), a.confirmClear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() {
			eng.Viewport().ZoomIn()
			updateZoom()
		}),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() {
			eng.Viewport().ZoomOut()
			updateZoom()
		}),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() {
			eng.Viewport().Reset()
			updateZoom()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.saveSession),
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.loadSession),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), a.exportPDF),
		widget.NewToolbarAction(theme.FileImageIcon(), a.exportPNG),
	)

	swatches := make([]fyne.CanvasObject, 0, len(palette))
	for _, hex := range palette {
		swatches = append(swatches, newColorSwatch(hex, func(hex string) {
			eng.SetColor(hex)
			eng.SetMode(state.ModeDraw)
		}))
	}

	widthSlider := widget.NewSlider(1, 50)
	widthSlider.SetValue(eng.Style().Width)
	widthSlider.OnChanged = eng.SetWidth
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), widthSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tools,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		container.NewHBox(swatches...),
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		zoomLabel,
		layout.NewSpacer(),
	)
}
