package session

import (
	"context"
	"log/slog"
	"time"

	"SyncBoard/internal/engine"
)

// Recorder is a headless participant. It applies every message it receives
// to its own engine and autosaves the result, so a session outlives the
// desktop participants that drew it.
type Recorder struct {
	loop     *Loop
	engine   *engine.Engine
	saver    *Autosaver
	interval time.Duration
	logger   *slog.Logger
}

// NewRecorder creates a recorder for eng that saves to store under key
// every interval.
func NewRecorder(eng *engine.Engine, store engine.BlobStore, key string, interval time.Duration, logger *slog.Logger) *Recorder {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Recorder{
		loop:     NewLoop(0),
		engine:   eng,
		saver:    &Autosaver{Engine: eng, Store: store, Key: key, Logger: logger},
		interval: interval,
		logger:   logger,
	}
}

// Restore loads a previously recorded canvas, if there is one. Call it
// before Run.
func (r *Recorder) Restore(ctx context.Context) error {
	ok, err := r.engine.Load(ctx, r.saver.Store, r.saver.Key)
	if err != nil {
		return err
	}
	if ok {
		r.logger.Info("restored recorded session", "key", r.saver.Key, "strokes", len(r.engine.Canvas()))
	}
	r.saver.MarkSaved()
	return nil
}

// Inbound queues a received payload. Safe from any goroutine.
func (r *Recorder) Inbound(payload []byte, from string) {
	r.loop.Post(func() { r.engine.HandleInbound(payload, from) })
}

// Attach queues the switch to transport t. Safe from any goroutine.
func (r *Recorder) Attach(t engine.Transport) {
	r.loop.Post(func() { r.engine.SetTransport(t) })
}

// PeerJoined only logs; a recorder never draws, so it has nothing to send.
func (r *Recorder) PeerJoined(peer string) {
	r.logger.Info("participant joined", "peer", peer)
}

// PeerLeft queues the departure of a participant. Safe from any goroutine.
func (r *Recorder) PeerLeft(peer string) {
	r.loop.Post(func() { r.engine.PeerLeft(peer) })
}

// Do runs f on the recorder's loop and waits for it. It returns false if the
// recorder has stopped.
func (r *Recorder) Do(f func(*engine.Engine)) bool {
	done := make(chan struct{})
	if !r.loop.Post(func() { f(r.engine); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-r.loop.done:
		return false
	}
}

// Run serves the recorder until ctx is cancelled, then saves one last time.
func (r *Recorder) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	go func() {
		for {
			select {
			case <-t.C:
				r.loop.Post(func() { r.save(ctx) })
			case <-ctx.Done():
				return
			}
		}
	}()

	r.loop.Run(ctx)

	final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.save(final)
}

func (r *Recorder) save(ctx context.Context) {
	saved, err := r.saver.Tick(ctx)
	if err != nil {
		r.logger.Error("failed to save session", "key", r.saver.Key, "error", err)
		return
	}
	if saved {
		r.logger.Info("session saved", "key", r.saver.Key, "version", r.engine.Version())
	}
}
