package store

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/state"
)

func openTemp(t *testing.T) *Bolt {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSessions) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestOpenInvalidPath(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "board.db"))
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestBoltSaveLoad(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	blob := bytes.Repeat([]byte(`{"x":1,"y":2},`), 500)
	require.NoError(t, s.Save(ctx, "room-1", blob))

	got, ok, err := s.Load(ctx, "room-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, blob, got)

	// stored compressed
	err = s.db.View(func(tx *bbolt.Tx) error {
		assert.Less(t, len(tx.Bucket(bucketSessions).Get([]byte("room-1"))), len(blob))
		return nil
	})
	require.NoError(t, err)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"room-1"}, keys)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "k", []byte("canvas")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("canvas"), got)
}

func TestBoltClosed(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Save(context.Background(), "k", nil), ErrClosed)
	_, _, err = s.Load(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Keys(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryCopiesBlobs(t *testing.T) {
	m := NewMemory()
	blob := []byte("abc")
	require.NoError(t, m.Save(context.Background(), "k", blob))
	blob[0] = 'z'

	got, ok, err := m.Load(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestEngineSessionRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	for name, blobs := range map[string]engine.BlobStore{"memory": NewMemory(), "bolt": openTemp(t)} {
		source := engine.New(engine.Options{Logger: logger})
		source.HandleLocalPointer(engine.PointerDown, state.Point{X: 1, Y: 1})
		source.HandleLocalPointer(engine.PointerMove, state.Point{X: 4, Y: 2})
		source.HandleLocalPointer(engine.PointerUp, state.Point{X: 4, Y: 2})
		source.SetMode(state.ModeErase)
		source.HandleLocalPointer(engine.PointerDown, state.Point{X: 3, Y: 3})
		source.HandleLocalPointer(engine.PointerUp, state.Point{X: 3, Y: 3})
		require.NoError(t, source.Save(ctx, blobs, "session"), name)

		restored := engine.New(engine.Options{Logger: logger})
		ok, err := restored.Load(ctx, blobs, "session")
		require.NoError(t, err, name)
		require.True(t, ok, name)
		assert.Equal(t, source.Canvas(), restored.Canvas(), name)
	}
}
