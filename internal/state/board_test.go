package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = Style{Color: "#ff0000", Width: 5}

func TestBoardLocalStroke(t *testing.T) {
	b := NewBoard()
	h, err := b.Begin("s1", Point{1, 1}, red)
	require.NoError(t, err)
	require.NoError(t, b.Extend(h, Point{2, 2}))
	require.NoError(t, b.Extend(h, Point{3, 3}))

	// visible while active
	require.Equal(t, 1, b.Len())
	assert.Equal(t, RefActive, b.State("s1"))

	s, err := b.End(h)
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 1}, {2, 2}, {3, 3}}, s.Points)
	assert.Equal(t, red, s.Style)
	assert.Equal(t, RefFrozen, b.State("s1"))

	_, active := b.Active()
	assert.False(t, active)
}

func TestBoardInvalidState(t *testing.T) {
	b := NewBoard()
	h, err := b.Begin("s1", Point{}, red)
	require.NoError(t, err)

	_, err = b.Begin("s2", Point{}, red)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, b.Extend(Handle{ref: "other"}, Point{}), ErrInvalidState)

	_, err = b.End(h)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Extend(h, Point{}), ErrInvalidState)
	_, err = b.End(h)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = b.Begin("s1", Point{}, red)
	assert.ErrorIs(t, err, ErrInvalidState, "references are never reused")
}

func TestBoardRemoteImplicitBegin(t *testing.T) {
	b := NewBoard()
	st, ok := b.ApplyRemotePoint("r1", "peer-a", Point{10, 10}, red)
	assert.True(t, ok)
	assert.Equal(t, RefActive, st)

	st, ok = b.ApplyRemotePoint("r1", "peer-a", Point{20, 10}, Style{Color: "#00ff00", Width: 1})
	assert.True(t, ok)
	assert.Equal(t, RefActive, st)

	strokes := b.Snapshot()
	require.Len(t, strokes, 1)
	assert.Equal(t, []Point{{10, 10}, {20, 10}}, strokes[0].Points)
	assert.Equal(t, red, strokes[0].Style, "style comes from the first point")
	assert.Equal(t, "peer-a", strokes[0].Owner)
}

func TestBoardRemoteCannotTouchLocalStroke(t *testing.T) {
	b := NewBoard()
	h, err := b.Begin("mine", Point{}, red)
	require.NoError(t, err)

	_, ok := b.ApplyRemotePoint("mine", "peer-a", Point{5, 5}, red)
	assert.False(t, ok)

	s, err := b.End(h)
	require.NoError(t, err)
	assert.Len(t, s.Points, 1)
}

func TestBoardFreeze(t *testing.T) {
	b := NewBoard()
	b.ApplyRemotePoint("a1", "peer-a", Point{}, red)
	b.ApplyRemotePoint("b1", "peer-b", Point{}, red)

	assert.Equal(t, 1, b.Freeze("peer-a"))
	assert.Equal(t, RefFrozen, b.State("a1"))
	assert.Equal(t, RefActive, b.State("b1"))

	st, ok := b.ApplyRemotePoint("a1", "peer-a", Point{1, 1}, red)
	assert.False(t, ok)
	assert.Equal(t, RefFrozen, st)
	assert.Len(t, b.Snapshot()[0].Points, 1)
}

func TestBoardClear(t *testing.T) {
	b := NewBoard()
	_, err := b.Begin("s1", Point{}, red)
	require.NoError(t, err)
	b.ApplyRemotePoint("r1", "peer", Point{}, red)

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, RefUnseen, b.State("r1"))
	_, active := b.Active()
	assert.False(t, active)

	b.Clear()
	assert.Nil(t, b.Snapshot())
}

func TestBoardSnapshotIsolation(t *testing.T) {
	b := NewBoard()
	b.ApplyRemotePoint("r1", "peer", Point{0, 0}, red)
	snap := b.Snapshot()

	b.ApplyRemotePoint("r1", "peer", Point{1, 1}, red)
	assert.Len(t, snap[0].Points, 1)
	assert.Len(t, b.Snapshot()[0].Points, 2)
}

func TestBoardRestore(t *testing.T) {
	b := NewBoard()
	h, err := b.Begin("local", Point{}, red)
	require.NoError(t, err)
	_, err = b.End(h)
	require.NoError(t, err)
	b.ApplyRemotePoint("r1", "peer", Point{0, 0}, red)
	b.ApplyRemotePoint("r2", "peer", Point{0, 0}, red)
	before := b.SnapshotWithout("r2")

	b.Restore(before)
	require.Equal(t, 2, b.Len())

	// r1 survived and is still active; r2 was dropped and is now frozen
	st, ok := b.ApplyRemotePoint("r1", "peer", Point{1, 1}, red)
	assert.True(t, ok)
	assert.Equal(t, RefActive, st)
	_, ok = b.ApplyRemotePoint("r2", "peer", Point{1, 1}, red)
	assert.False(t, ok)
	assert.Equal(t, 2, b.Len())

	// restored strokes from an unknown source arrive frozen
	b.Restore([]Stroke{{Ref: "loaded", Points: []Point{{1, 2}}, Style: red}})
	assert.Equal(t, RefFrozen, b.State("loaded"))
}

func TestBoardRestoreReactivatesReturningRemoteStroke(t *testing.T) {
	b := NewBoard()
	b.ApplyRemotePoint("r1", "peer", Point{0, 0}, red)
	withR1 := b.Snapshot()

	b.Restore(nil)
	assert.Equal(t, RefFrozen, b.State("r1"))
	b.Restore(nil)
	assert.Equal(t, RefFrozen, b.State("r1"), "still dropped after a second restore")

	b.Restore(withR1)
	assert.Equal(t, RefActive, b.State("r1"))
	st, ok := b.ApplyRemotePoint("r1", "peer", Point{1, 1}, red)
	assert.True(t, ok)
	assert.Equal(t, RefActive, st)
	assert.Equal(t, []Point{{0, 0}, {1, 1}}, b.Snapshot()[0].Points)
}

func TestBoardFreezeOutlastsRestore(t *testing.T) {
	b := NewBoard()
	b.ApplyRemotePoint("r1", "peer", Point{0, 0}, red)
	withR1 := b.Snapshot()

	b.Restore(nil)
	b.Freeze("peer")
	b.Restore(withR1)
	assert.Equal(t, RefFrozen, b.State("r1"))

	_, ok := b.ApplyRemotePoint("r1", "peer", Point{1, 1}, red)
	assert.False(t, ok)
}

func TestBoardRestoreKeepsActiveLocalStroke(t *testing.T) {
	b := NewBoard()
	h, err := b.Begin("local", Point{}, red)
	require.NoError(t, err)

	b.Restore(b.Snapshot())
	require.NoError(t, b.Extend(h, Point{1, 1}))

	b.Restore(nil)
	_, active := b.Active()
	assert.False(t, active)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	assert.False(t, ok)

	r, ok := Bounds([]Stroke{
		{Points: []Point{{10, 10}, {20, 30}}, Style: Style{Width: 2}},
		{Points: []Point{{-5, 0}}, Style: Style{Width: 4}},
	})
	require.True(t, ok)
	assert.Equal(t, Rect{MinX: -7, MinY: -2, MaxX: 21, MaxY: 31}, r)
	assert.Equal(t, 28.0, r.Width())
	assert.Equal(t, 33.0, r.Height())
}

func TestRefGeneratorUnique(t *testing.T) {
	g := NewRefGenerator()
	other := NewRefGenerator()
	assert.NotEqual(t, g.Session(), other.Session())

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := g.Next()
		assert.False(t, seen[ref])
		seen[ref] = true
	}
	assert.Contains(t, g.Next(), g.Session())
}
