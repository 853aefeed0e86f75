package session

import (
	"context"
	"log/slog"

	"SyncBoard/internal/engine"
)

// Autosaver writes the engine's canvas to a store whenever it has changed
// since the last save.
type Autosaver struct {
	Engine *engine.Engine
	Store  engine.BlobStore
	Key    string
	Logger *slog.Logger

	saved   uint64
	started bool
}

// Tick saves if the canvas changed. It must run on the goroutine that owns
// the engine. It reports whether a save happened.
func (a *Autosaver) Tick(ctx context.Context) (bool, error) {
	v := a.Engine.Version()
	if a.started && v == a.saved {
		return false, nil
	}
	if err := a.Engine.Save(ctx, a.Store, a.Key); err != nil {
		return false, err
	}
	a.saved, a.started = v, true
	a.Logger.Debug("session saved", "key", a.Key, "version", v, "strokes", len(a.Engine.Canvas()))
	return true, nil
}

// MarkSaved records the current version as persisted, so an unchanged
// canvas just loaded from the store is not written back.
func (a *Autosaver) MarkSaved() {
	a.saved, a.started = a.Engine.Version(), true
}
