package ui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/session"
)

// Options configures the desktop app.
type Options struct {
	Engine     *engine.Engine
	Store      engine.BlobStore
	SessionKey string

	// ShareLink is shown in the status bar when this participant hosts.
	ShareLink string

	// Autosave is the autosave period. Zero disables autosave.
	Autosave time.Duration

	Logger *slog.Logger
}

// App is the desktop whiteboard window. The engine is only touched from
// fyne's main goroutine: widget callbacks already run there, and the
// exported notification methods hop onto it with fyne.Do.
type App struct {
	fyne   fyne.App
	window fyne.Window
	logger *slog.Logger

	engine *engine.Engine
	store  engine.BlobStore
	key    string
	saver  *session.Autosaver

	autosave  time.Duration
	shareLink string

	board        *BoardWidget
	status       *widget.Label
	participants []string
	roster       *widget.List
}

func New(opts Options) *App {
	a := &App{
		fyne:      app.NewWithID("io.localboard.syncboard"),
		logger:    opts.Logger,
		engine:    opts.Engine,
		store:     opts.Store,
		key:       opts.SessionKey,
		autosave:  opts.Autosave,
		shareLink: opts.ShareLink,
		status:    widget.NewLabel("Ready"),
	}
	if a.store != nil {
		a.saver = &session.Autosaver{Engine: a.engine, Store: a.store, Key: a.key, Logger: a.logger}
		a.saver.MarkSaved()
	}

	a.window = a.fyne.NewWindow("Local Whiteboard")
	a.window.Resize(fyne.NewSize(1024, 768))

	a.board = NewBoardWidget(a.engine)
	a.roster = widget.NewList(
		func() int { return len(a.participants) },
		func() fyne.CanvasObject { return widget.NewLabel("participant") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(shortID(a.participants[id]))
		},
	)

	toolbar := NewToolbar(a)
	footer := container.NewHBox(a.status)
	if a.shareLink != "" {
		link := widget.NewLabel(a.shareLink)
		link.Selectable = true
		footer.Add(widget.NewLabel("Share:"))
		footer.Add(link)
	}
	side := container.NewBorder(widget.NewLabel("Participants"), nil, nil, nil, a.roster)
	split := container.NewHSplit(a.board, side)
	split.Offset = 0.85

	a.window.SetContent(container.NewBorder(toolbar, footer, nil, nil, split))
	return a
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Run shows the window and blocks until it is closed or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	quit := make(chan struct{})
	if a.saver != nil && a.autosave > 0 {
		go func() {
			t := time.NewTicker(a.autosave)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					fyne.Do(func() { a.autosaveNow(ctx) })
				case <-ctx.Done():
					return
				case <-quit:
					return
				}
			}
		}()
	}
	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(a.fyne.Quit)
		case <-quit:
		}
	}()
	a.window.ShowAndRun()
	close(quit)
}

func (a *App) autosaveNow(ctx context.Context) {
	if saved, err := a.saver.Tick(ctx); err != nil {
		a.logger.Error("autosave failed", "key", a.key, "error", err)
		a.status.SetText("Autosave failed")
	} else if saved {
		a.status.SetText("Saved " + time.Now().Format("15:04:05"))
	}
}

// Attach makes t the engine's transport. Safe from any goroutine.
func (a *App) Attach(t engine.Transport) {
	fyne.Do(func() { a.engine.SetTransport(t) })
}

// Inbound applies a payload received from the network. Safe from any
// goroutine.
func (a *App) Inbound(payload []byte, from string) {
	fyne.Do(func() {
		a.engine.HandleInbound(payload, from)
		a.board.Refresh()
	})
}

// PeerJoined adds a participant to the roster. Safe from any goroutine.
func (a *App) PeerJoined(id string) {
	fyne.Do(func() {
		if !slices.Contains(a.participants, id) {
			a.participants = append(a.participants, id)
			a.roster.Refresh()
		}
		a.status.SetText(fmt.Sprintf("%s joined", shortID(id)))
	})
}

// PeerLeft freezes a departed participant's strokes and drops them from
// the roster. Safe from any goroutine.
func (a *App) PeerLeft(id string) {
	fyne.Do(func() {
		a.engine.PeerLeft(id)
		a.participants = slices.DeleteFunc(a.participants, func(p string) bool { return p == id })
		a.roster.Refresh()
		a.status.SetText(fmt.Sprintf("%s left", shortID(id)))
	})
}

// SetStatus replaces the status bar text. Safe from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

func (a *App) confirmClear() {
	dialog.ShowConfirm("Clear board", "Clear the board for every participant?", func(ok bool) {
		if !ok {
			return
		}
		a.engine.Clear()
		a.board.changed()
		a.status.SetText("Board cleared")
	}, a.window)
}

func (a *App) saveSession() {
	if a.store == nil {
		a.status.SetText("No session store configured")
		return
	}
	if err := a.engine.Save(context.Background(), a.store, a.key); err != nil {
		a.logger.Error("save failed", "key", a.key, "error", err)
		dialog.ShowError(err, a.window)
		return
	}
	if a.saver != nil {
		a.saver.MarkSaved()
	}
	a.status.SetText(fmt.Sprintf("Saved %d strokes", len(a.engine.Canvas())))
}

func (a *App) loadSession() {
	if a.store == nil {
		a.status.SetText("No session store configured")
		return
	}
	ok, err := a.engine.Load(context.Background(), a.store, a.key)
	if err != nil {
		a.logger.Error("load failed", "key", a.key, "error", err)
		dialog.ShowError(err, a.window)
		return
	}
	if !ok {
		a.status.SetText("No saved session")
		return
	}
	if a.saver != nil {
		a.saver.MarkSaved()
	}
	a.board.changed()
	a.status.SetText(fmt.Sprintf("Loaded %d strokes", len(a.engine.Canvas())))
}
