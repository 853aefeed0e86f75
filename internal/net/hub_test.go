package net

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type received struct {
	payload string
	from    string
}

type testClient struct {
	*Client
	data    chan received
	joins   chan string
	leaves  chan string
	signals chan received
}

func startHub(t *testing.T) string {
	t.Helper()
	_, url := serveHub(t)
	return url
}

func serveHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(discardLogger(), 0)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, url string) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, discardLogger())
	require.NoError(t, err)
	require.NotEmpty(t, c.ID())

	tc := &testClient{
		Client:  c,
		data:    make(chan received, 256),
		joins:   make(chan string, 16),
		leaves:  make(chan string, 16),
		signals: make(chan received, 16),
	}
	runCtx, stop := context.WithCancel(context.Background())
	t.Cleanup(stop)
	go tc.Run(runCtx, Events{
		OnData:  func(p []byte, from string) { tc.data <- received{string(p), from} },
		OnJoin:  func(peer string) { tc.joins <- peer },
		OnLeave: func(peer string) { tc.leaves <- peer },
		OnSignal: func(kind, from string, p []byte) {
			tc.signals <- received{kind + ":" + string(p), from}
		},
	})
	return tc
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relay frame")
		var zero T
		return zero
	}
}

func TestHubAnnouncesJoinAndLeave(t *testing.T) {
	url := startHub(t)
	a := connect(t, url)
	b := connect(t, url)

	assert.Equal(t, b.ID(), next(t, a.joins))
	assert.Equal(t, a.ID(), next(t, b.joins))

	require.NoError(t, b.Close())
	assert.Equal(t, b.ID(), next(t, a.leaves))
}

func TestHubTracksConnectedPeers(t *testing.T) {
	hub, url := serveHub(t)
	assert.Empty(t, hub.Peers())

	a := connect(t, url)
	b := connect(t, url)
	require.Equal(t, b.ID(), next(t, a.joins))
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, hub.Peers())

	require.NoError(t, b.Close())
	require.Equal(t, b.ID(), next(t, a.leaves))
	assert.Equal(t, []string{a.ID()}, hub.Peers())
}

func TestHubRelaysInOrderWithoutEcho(t *testing.T) {
	url := startHub(t)
	a := connect(t, url)
	b := connect(t, url)
	c := connect(t, url)

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, a.Send([]byte(fmt.Sprintf("point-%d", i)), protocol.Reliable))
	}
	for _, peer := range []*testClient{b, c} {
		for i := 0; i < n; i++ {
			got := next(t, peer.data)
			assert.Equal(t, fmt.Sprintf("point-%d", i), got.payload)
			assert.Equal(t, a.ID(), got.from)
		}
	}

	// Any echo of a's frames would be queued to a before b's reply.
	require.NoError(t, b.Send([]byte("reply"), protocol.Reliable))
	got := next(t, a.data)
	assert.Equal(t, received{"reply", b.ID()}, got)
}

func TestHubDropsLossyFramesWhenQueueFull(t *testing.T) {
	hub := NewHub(discardLogger(), 1)
	p := &peer{id: "slow", send: make(chan []byte, 1), closed: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		hub.deliver(p, Envelope{Kind: KindData, Payload: []byte("1")}, protocol.Lossy)
		hub.deliver(p, Envelope{Kind: KindData, Payload: []byte("2")}, protocol.Lossy)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lossy delivery blocked on a full queue")
	}
	require.Len(t, p.send, 1)
	env, err := decodeEnvelope(<-p.send)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), env.Payload)
}

func TestHubRoutesSignalsToAddressee(t *testing.T) {
	url := startHub(t)
	a := connect(t, url)
	b := connect(t, url)
	c := connect(t, url)

	require.NoError(t, b.Signal(KindOffer, a.ID(), []byte("sdp")))
	assert.Equal(t, received{"offer:sdp", b.ID()}, next(t, a.signals))

	require.NoError(t, a.Signal(KindAnswer, b.ID(), []byte("reply")))
	assert.Equal(t, received{"answer:reply", a.ID()}, next(t, b.signals))

	assert.Empty(t, c.signals)
}

func TestClientSendAfterCloseIsUnavailable(t *testing.T) {
	url := startHub(t)
	a := connect(t, url)
	require.NoError(t, a.Close())

	err := a.Send([]byte("late"), protocol.Lossy)
	assert.ErrorIs(t, err, engine.ErrTransportUnavailable)
}
