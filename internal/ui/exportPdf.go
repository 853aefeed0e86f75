package ui

import (
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"SyncBoard/internal/export"
	"SyncBoard/internal/state"
)

func (a *App) exportPDF() {
	a.exportTo("board.pdf", ".pdf", export.WritePDF)
}

func (a *App) exportPNG() {
	a.exportTo("board.png", ".png", export.WritePNG)
}

// exportTo asks for a destination and renders the current canvas into it.
func (a *App) exportTo(name, ext string, write func(io.Writer, []state.Stroke) error) {
	strokes := a.engine.Canvas()
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()

		if err := write(w, strokes); err != nil {
			a.logger.Error("export failed", "uri", w.URI().String(), "error", err)
			dialog.ShowError(err, a.window)
			return
		}
		a.logger.Info("board exported", "uri", w.URI().String(), "strokes", len(strokes))
		a.status.SetText("Exported " + w.URI().Name())
	}, a.window)
	d.SetFileName(name)
	d.SetFilter(storage.NewExtensionFileFilter([]string{ext}))
	d.Show()
}
