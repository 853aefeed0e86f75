package state

// DefaultHistoryDepth bounds the undo stack when no depth is configured.
const DefaultHistoryDepth = 100

// History holds the undo and redo stacks of canvas snapshots. Entries are
// the canvas as it was before each local commit, so unwinding every commit
// returns to the state before the first one.
type History struct {
	past   [][]Stroke
	future [][]Stroke
	depth  int
}

// NewHistory returns empty stacks. When depth is positive the oldest undo
// entries are evicted beyond it.
func NewHistory(depth int) *History {
	return &History{depth: depth}
}

// Commit records the canvas from before a change and discards the redo
// stack.
func (h *History) Commit(before []Stroke) {
	h.past = append(h.past, before)
	if h.depth > 0 && len(h.past) > h.depth {
		h.past = append(h.past[:0:0], h.past[len(h.past)-h.depth:]...)
	}
	h.future = nil
}

// Undo moves current onto the redo stack and returns the previous canvas.
// With nothing left to undo the result is the empty canvas; current is
// still pushed, even when empty, so the next Redo returns it.
func (h *History) Undo(current []Stroke) []Stroke {
	if len(h.past) == 0 {
		h.future = append(h.future, current)
		return nil
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return prev
}

// Redo reverses the most recent Undo. The bool is false, and current is
// returned unchanged, when there is nothing to redo.
func (h *History) Redo(current []Stroke) ([]Stroke, bool) {
	if len(h.future) == 0 {
		return current, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next, true
}

// Reset empties both stacks.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }
func (h *History) Depth() int    { return len(h.past) }
