package net

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/protocol"
)

// memorySignaler hands signals straight to the addressed mesh.
type memorySignaler struct {
	from  string
	mu    *sync.Mutex
	peers map[string]*Mesh
}

func (s memorySignaler) Signal(kind, to string, payload []byte) error {
	s.mu.Lock()
	target := s.peers[to]
	s.mu.Unlock()
	target.HandleSignal(kind, s.from, payload)
	return nil
}

func TestMeshSendWithoutLinksIsUnavailable(t *testing.T) {
	m := NewMesh("a", memorySignaler{}, nil, discardLogger(), nil)
	defer m.Close()

	err := m.Send([]byte("x"), protocol.Lossy)
	assert.ErrorIs(t, err, engine.ErrTransportUnavailable)
}

func TestMeshDeliversOverDataChannel(t *testing.T) {
	var mu sync.Mutex
	peers := make(map[string]*Mesh)

	got := make(chan received, 16)
	a := NewMesh("a", memorySignaler{from: "a", mu: &mu, peers: peers}, nil, discardLogger(), nil)
	b := NewMesh("b", memorySignaler{from: "b", mu: &mu, peers: peers}, nil, discardLogger(),
		func(payload []byte, from string) { got <- received{string(payload), from} })
	defer a.Close()
	defer b.Close()

	mu.Lock()
	peers["a"] = a
	peers["b"] = b
	mu.Unlock()

	a.PeerJoined("b")
	b.PeerJoined("a")

	require.Eventually(t, func() bool {
		return len(a.Connected()) == 1 && len(b.Connected()) == 1
	}, 20*time.Second, 50*time.Millisecond)

	require.NoError(t, a.Send([]byte("first"), protocol.Lossy))
	require.NoError(t, a.Send([]byte("second"), protocol.Reliable))

	for _, want := range []string{"first", "second"} {
		select {
		case r := <-got:
			assert.Equal(t, received{want, "a"}, r)
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	b.PeerLeft("a")
	assert.Empty(t, b.Connected())
}
