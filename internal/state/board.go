package state

import "fmt"

// Handle identifies the local stroke returned by Board.Begin.
type Handle struct {
	ref string
}

// Ref returns the stroke reference the handle points at.
func (h Handle) Ref() string { return h.ref }

type tracked struct {
	stroke *Stroke
	state  RefState
	local  bool
	// restored marks a remote ref frozen only because a restore dropped
	// its stroke. It becomes active again if a later restore brings the
	// stroke back.
	restored bool
}

// Board is the stroke model: the ordered canvas, the one local stroke being
// drawn, and the lifecycle of every stroke reference seen so far. Local and
// remote strokes share one reference space.
//
// Board is not safe for concurrent use; the engine owning it serializes
// every call.
type Board struct {
	strokes []*Stroke
	refs    map[string]*tracked
	active  *tracked
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{refs: make(map[string]*tracked)}
}

// Begin starts a local stroke at origin. The stroke is painted immediately,
// on top of everything committed before it.
func (b *Board) Begin(ref string, origin Point, style Style) (Handle, error) {
	if b.active != nil {
		return Handle{}, fmt.Errorf("begin %s while %s is active: %w", ref, b.active.stroke.Ref, ErrInvalidState)
	}
	if _, seen := b.refs[ref]; seen {
		return Handle{}, fmt.Errorf("reference %s already in use: %w", ref, ErrInvalidState)
	}
	t := b.add(ref, "", origin, style)
	t.local = true
	b.active = t
	return Handle{ref: ref}, nil
}

// Extend appends p to the active local stroke.
func (b *Board) Extend(h Handle, p Point) error {
	if b.active == nil || b.active.stroke.Ref != h.ref {
		return fmt.Errorf("extend %s: %w", h.ref, ErrInvalidState)
	}
	b.active.stroke.Points = append(b.active.stroke.Points, p)
	return nil
}

// End freezes the active local stroke and returns it.
func (b *Board) End(h Handle) (Stroke, error) {
	if b.active == nil || b.active.stroke.Ref != h.ref {
		return Stroke{}, fmt.Errorf("end %s: %w", h.ref, ErrInvalidState)
	}
	t := b.active
	t.state = RefFrozen
	b.active = nil
	return t.stroke.clone(), nil
}

// Active reports the handle of the local stroke being drawn, if any.
func (b *Board) Active() (Handle, bool) {
	if b.active == nil {
		return Handle{}, false
	}
	return Handle{ref: b.active.stroke.Ref}, true
}

// ApplyRemotePoint applies one remote point. An unseen reference implicitly
// begins a stroke with the given style; an active one is extended. Points
// for frozen references and for references owned by the local participant
// are not applied.
func (b *Board) ApplyRemotePoint(ref, owner string, p Point, style Style) (RefState, bool) {
	t, seen := b.refs[ref]
	if !seen {
		b.add(ref, owner, p, style)
		return RefActive, true
	}
	if t.local || t.state != RefActive {
		return t.state, false
	}
	t.stroke.Points = append(t.stroke.Points, p)
	return RefActive, true
}

// State reports the lifecycle position of ref.
func (b *Board) State(ref string) RefState {
	if t, ok := b.refs[ref]; ok {
		return t.state
	}
	return RefUnseen
}

// Freeze marks every active remote stroke attributed to owner as frozen.
// It returns the number of strokes frozen.
func (b *Board) Freeze(owner string) int {
	n := 0
	for _, t := range b.refs {
		if t.local || t.stroke.Owner != owner {
			continue
		}
		if t.state == RefActive {
			t.state = RefFrozen
			n++
		}
		t.restored = false
	}
	return n
}

// Clear drops every stroke and forgets every reference.
func (b *Board) Clear() {
	b.strokes = nil
	b.refs = make(map[string]*tracked)
	b.active = nil
}

// Len returns the number of strokes on the canvas.
func (b *Board) Len() int { return len(b.strokes) }

// Snapshot returns the canvas in paint order. Later appends to active
// strokes do not show through the returned slice.
func (b *Board) Snapshot() []Stroke {
	if len(b.strokes) == 0 {
		return nil
	}
	out := make([]Stroke, len(b.strokes))
	for i, s := range b.strokes {
		out[i] = s.clone()
	}
	return out
}

// SnapshotWithout is Snapshot minus the stroke with the given reference.
func (b *Board) SnapshotWithout(ref string) []Stroke {
	out := make([]Stroke, 0, len(b.strokes))
	for _, s := range b.strokes {
		if s.Ref != ref {
			out = append(out, s.clone())
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Restore replaces the canvas with strokes. References keep their lifecycle
// state when they survive the restore; active remote references that
// disappear are frozen so late points cannot resurrect them, and become
// active again if a later restore brings their stroke back. References first
// seen in strokes arrive frozen. The local active stroke survives only if it
// is part of strokes.
func (b *Board) Restore(strokes []Stroke) {
	previous := b.refs
	b.strokes = make([]*Stroke, 0, len(strokes))
	b.refs = make(map[string]*tracked, len(strokes))
	var active *tracked
	for i := range strokes {
		s := strokes[i].clone()
		b.strokes = append(b.strokes, &s)
		if s.Ref == "" {
			continue
		}
		t := &tracked{stroke: &s, state: RefFrozen}
		if old, ok := previous[s.Ref]; ok {
			t.state = old.state
			t.local = old.local
			if old.restored {
				t.state = RefActive
			}
			if old == b.active {
				active = t
			}
		}
		b.refs[s.Ref] = t
	}
	for ref, old := range previous {
		if _, kept := b.refs[ref]; kept || old.local {
			continue
		}
		if old.state == RefActive || old.restored {
			b.refs[ref] = &tracked{stroke: old.stroke, state: RefFrozen, restored: true}
		}
	}
	b.active = active
}

func (b *Board) add(ref, owner string, origin Point, style Style) *tracked {
	s := &Stroke{Ref: ref, Owner: owner, Points: []Point{origin}, Style: style}
	b.strokes = append(b.strokes, s)
	t := &tracked{stroke: s, state: RefActive}
	b.refs[ref] = t
	return t
}
