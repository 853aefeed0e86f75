package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"SyncBoard/internal/protocol"
	"SyncBoard/internal/state"
)

// PointerKind is the phase of a local pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// anonymousRefPrefix keys points that arrive without a stroke reference;
// they extend one stroke per sender.
const anonymousRefPrefix = "anon:"

// DefaultStyle is the tool a new engine starts with.
var DefaultStyle = state.Style{Color: "#df4b26", Width: 5, Mode: state.ModeDraw}

// Options configures a new Engine. Zero values select defaults.
type Options struct {
	Logger       *slog.Logger
	Codec        protocol.Codec
	HistoryDepth int
	Style        state.Style
	Viewport     state.Viewport
}

// Engine is one participant's drawing session.
type Engine struct {
	logger    *slog.Logger
	codec     protocol.Codec
	board     *state.Board
	history   *state.History
	refs      *state.RefGenerator
	transport Transport

	style    state.Style
	viewport state.Viewport

	// version increases on every change to the canvas or history.
	version uint64
}

// New creates an engine with an empty canvas and no transport.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Codec == nil {
		opts.Codec = protocol.JSONCodec{}
	}
	if opts.HistoryDepth == 0 {
		opts.HistoryDepth = state.DefaultHistoryDepth
	}
	if opts.Style.Width <= 0 || opts.Style.Color == "" {
		opts.Style = DefaultStyle
	}
	if opts.Viewport.Zoom == 0 {
		opts.Viewport = state.NewViewport(state.DefaultMinZoom, state.DefaultMaxZoom, state.DefaultZoomStep)
	}
	refs := state.NewRefGenerator()
	return &Engine{
		logger:   opts.Logger.With("session", refs.Session()),
		codec:    opts.Codec,
		board:    state.NewBoard(),
		history:  state.NewHistory(opts.HistoryDepth),
		refs:     refs,
		style:    opts.Style,
		viewport: opts.Viewport,
	}
}

// SetTransport attaches the broadcast path. A nil transport keeps drawing
// local.
func (e *Engine) SetTransport(t Transport) { e.transport = t }

// HandleLocalPointer applies one local pointer event given in screen
// coordinates.
func (e *Engine) HandleLocalPointer(kind PointerKind, screen state.Point) {
	switch kind {
	case PointerDown:
		e.beginStroke(e.viewport.ToCanvas(screen))
	case PointerMove:
		h, ok := e.board.Active()
		if !ok {
			return
		}
		p := e.viewport.ToCanvas(screen)
		if err := e.board.Extend(h, p); err != nil {
			e.logger.Warn("extending stroke failed", "ref", h.Ref(), "error", err)
			return
		}
		e.version++
		e.broadcast(protocol.DrawPoint{StrokeRef: h.Ref(), Point: p, Style: e.style})
	case PointerUp:
		e.finishStroke()
	}
}

func (e *Engine) beginStroke(origin state.Point) {
	// A down without a matching up ends the previous stroke first.
	e.finishStroke()

	ref := e.refs.Next()
	if _, err := e.board.Begin(ref, origin, e.style); err != nil {
		e.logger.Warn("beginning stroke failed", "ref", ref, "error", err)
		return
	}
	e.version++
	e.broadcast(protocol.DrawPoint{StrokeRef: ref, Point: origin, Style: e.style})
}

// finishStroke freezes the active local stroke, if any, and commits the
// canvas as it was without it.
func (e *Engine) finishStroke() {
	h, ok := e.board.Active()
	if !ok {
		return
	}
	stroke, err := e.board.End(h)
	if err != nil {
		e.logger.Warn("ending stroke failed", "ref", h.Ref(), "error", err)
		return
	}
	e.history.Commit(e.board.SnapshotWithout(stroke.Ref))
	e.version++
	e.logger.Debug("stroke committed", "ref", stroke.Ref, "points", len(stroke.Points))
}

// HandleInbound applies one payload received from senderID. Payloads that
// cannot be decoded are logged and dropped.
func (e *Engine) HandleInbound(payload []byte, senderID string) {
	msg, err := e.codec.Decode(payload)
	switch {
	case errors.Is(err, protocol.ErrUnknownType):
		e.logger.Debug("ignoring message of unknown type", "peer", senderID, "error", err)
		return
	case err != nil:
		e.logger.Warn("dropping malformed message", "peer", senderID, "bytes", len(payload), "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.DrawPoint:
		e.applyRemotePoint(m, senderID)
	case protocol.Clear:
		e.reset()
		e.logger.Info("canvas cleared by peer", "peer", senderID)
	}
}

func (e *Engine) applyRemotePoint(m protocol.DrawPoint, senderID string) {
	ref := m.StrokeRef
	if ref == "" {
		ref = anonymousRefPrefix + senderID
	}
	st, applied := e.board.ApplyRemotePoint(ref, senderID, m.Point, m.Style)
	if !applied {
		e.logger.Debug("ignoring point for closed stroke", "peer", senderID, "ref", ref, "state", st.String())
		return
	}
	e.version++
}

// PeerLeft freezes every stroke senderID was still drawing.
func (e *Engine) PeerLeft(senderID string) {
	if n := e.board.Freeze(senderID); n > 0 {
		e.logger.Info("froze strokes of departed peer", "peer", senderID, "strokes", n)
	}
}

// Clear empties the canvas and history here and on every peer.
// A clear also resets local history, so it cannot be undone.
func (e *Engine) Clear() {
	e.reset()
	e.broadcast(protocol.Clear{})
}

func (e *Engine) reset() {
	e.board.Clear()
	e.history.Reset()
	e.version++
}

// Undo restores the canvas from before the last local commit. Past the
// oldest commit it leaves an empty canvas.
func (e *Engine) Undo() {
	e.finishStroke()
	e.board.Restore(e.history.Undo(e.board.Snapshot()))
	e.version++
}

// Redo reapplies the most recently undone state, if any.
func (e *Engine) Redo() {
	e.finishStroke()
	next, ok := e.history.Redo(e.board.Snapshot())
	if !ok {
		return
	}
	e.board.Restore(next)
	e.version++
}

func (e *Engine) broadcast(m protocol.Message) {
	if e.transport == nil {
		e.logger.Debug("no transport, broadcast skipped", "type", m.Type())
		return
	}
	payload, err := e.codec.Encode(m)
	if err != nil {
		e.logger.Error("encoding message failed", "type", m.Type(), "error", err)
		return
	}
	reliability := protocol.ReliabilityFor(m)
	if err := e.transport.Send(payload, reliability); err != nil {
		if errors.Is(err, ErrTransportUnavailable) {
			e.logger.Debug("transport unavailable, broadcast skipped", "type", m.Type())
			return
		}
		e.logger.Warn("broadcast failed", "type", m.Type(), "reliability", reliability.String(), "error", err)
	}
}

// Save stores the current canvas under key.
func (e *Engine) Save(ctx context.Context, store BlobStore, key string) error {
	data, err := state.MarshalCanvas(e.board.Snapshot())
	if err != nil {
		return err
	}
	if err := store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("saving session %s: %w", key, err)
	}
	return nil
}

// Load replaces the canvas with the one stored under key and starts a new
// history. It reports false when nothing is stored there.
func (e *Engine) Load(ctx context.Context, store BlobStore, key string) (bool, error) {
	data, ok, err := store.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("loading session %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	strokes, err := state.UnmarshalCanvas(data)
	if err != nil {
		return false, fmt.Errorf("loading session %s: %w", key, err)
	}
	e.board.Clear()
	e.board.Restore(strokes)
	e.history.Reset()
	e.version++
	return true, nil
}

// Canvas returns the strokes to paint, in paint order.
func (e *Engine) Canvas() []state.Stroke { return e.board.Snapshot() }

// Drawing reports whether a local stroke is in progress.
func (e *Engine) Drawing() bool {
	_, ok := e.board.Active()
	return ok
}

func (e *Engine) Style() state.Style        { return e.style }
func (e *Engine) SetColor(color string)     { e.style.Color = color }
func (e *Engine) SetMode(mode state.Mode)   { e.style.Mode = mode }
func (e *Engine) Viewport() *state.Viewport { return &e.viewport }
func (e *Engine) CanUndo() bool             { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool             { return e.history.CanRedo() }
func (e *Engine) SessionID() string         { return e.refs.Session() }
func (e *Engine) Version() uint64           { return e.version }

// SetWidth changes the tool width. Non-positive widths are ignored.
func (e *Engine) SetWidth(width float64) {
	if width > 0 {
		e.style.Width = width
	}
}
