package net

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"SyncBoard/internal/protocol"
)

// RelayPath is where the hub serves websocket upgrades.
const RelayPath = "/ws"

// DefaultQueueSize is the per-client outbound frame buffer.
const DefaultQueueSize = 256

// reliableTimeout bounds how long a reliable frame waits for space in a
// client queue before that client is disconnected.
const reliableTimeout = 5 * time.Second

const writeTimeout = 10 * time.Second

// Hub is the host-side relay. Every client connects over a websocket; data
// frames from one client are relayed to all others, and signaling frames
// are routed to their addressee.
//
// Each client has one ordered outbound queue, so frames from one sender
// reach every receiver in the order they were sent. When a queue is full,
// lossy frames are dropped and reliable frames wait.
type Hub struct {
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	queueSize int

	mu    sync.RWMutex
	peers map[string]*peer
}

type peer struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.conn.Close()
	})
}

// NewHub creates a relay. queueSize <= 0 selects DefaultQueueSize.
func NewHub(logger *slog.Logger, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		logger:    logger,
		queueSize: queueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(map[string]*peer),
	}
}

// ServeHTTP upgrades the request and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	p := &peer{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, h.queueSize),
		closed: make(chan struct{}),
	}
	go h.writeLoop(p)

	// welcome goes out before the client is visible to other senders so it
	// is always the first frame on the connection.
	h.deliver(p, Envelope{Kind: KindWelcome, To: p.id}, protocol.Reliable)
	existing := h.add(p)
	h.logger.Info("participant connected", "peer", p.id, "remote", r.RemoteAddr)

	for _, other := range existing {
		h.deliver(p, Envelope{Kind: KindJoin, From: other.id}, protocol.Reliable)
		h.deliver(other, Envelope{Kind: KindJoin, From: p.id}, protocol.Reliable)
	}

	h.readLoop(p)

	h.remove(p)
	p.close()
	h.logger.Info("participant disconnected", "peer", p.id)
	h.broadcast(Envelope{Kind: KindLeave, From: p.id}, protocol.Reliable, "")
}

func (h *Hub) readLoop(p *peer) {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := decodeEnvelope(data)
		if err != nil {
			h.logger.Warn("dropping undecodable frame", "peer", p.id, "error", err)
			continue
		}
		env.From = p.id

		switch env.Kind {
		case KindData:
			h.broadcast(env, env.Reliability, p.id)
		case KindOffer, KindAnswer:
			target, ok := h.peer(env.To)
			if !ok {
				h.logger.Debug("signal for unknown peer", "peer", p.id, "to", env.To)
				continue
			}
			h.deliver(target, env, protocol.Reliable)
		default:
			h.logger.Debug("ignoring frame", "peer", p.id, "kind", env.Kind)
		}
	}
}

func (h *Hub) writeLoop(p *peer) {
	for {
		select {
		case frame := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				h.logger.Warn("write to participant failed", "peer", p.id, "error", err)
				p.close()
				return
			}
		case <-p.closed:
			return
		}
	}
}

// broadcast relays env to every client except exclude.
func (h *Hub) broadcast(env Envelope, reliability protocol.Reliability, exclude string) {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for id, p := range h.peers {
		if id != exclude {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range targets {
		h.deliver(p, env, reliability)
	}
}

func (h *Hub) deliver(p *peer, env Envelope, reliability protocol.Reliability) {
	frame, err := encodeEnvelope(env)
	if err != nil {
		h.logger.Error("encoding frame failed", "peer", p.id, "error", err)
		return
	}
	if reliability == protocol.Lossy {
		select {
		case p.send <- frame:
		case <-p.closed:
		default:
			h.logger.Debug("queue full, dropping lossy frame", "peer", p.id, "kind", env.Kind)
		}
		return
	}

	timer := time.NewTimer(reliableTimeout)
	defer timer.Stop()
	select {
	case p.send <- frame:
	case <-p.closed:
	case <-timer.C:
		h.logger.Warn("participant too slow for reliable frame, disconnecting", "peer", p.id, "kind", env.Kind)
		p.close()
	}
}

func (h *Hub) add(p *peer) []*peer {
	h.mu.Lock()
	defer h.mu.Unlock()
	existing := make([]*peer, 0, len(h.peers))
	for _, other := range h.peers {
		existing = append(existing, other)
	}
	h.peers[p.id] = p
	return existing
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, p.id)
}

func (h *Hub) peer(id string) (*peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[id]
	return p, ok
}

// Peers returns the ids of the connected clients.
func (h *Hub) Peers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	return ids
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[string]*peer)
	h.mu.Unlock()
	for _, p := range peers {
		p.close()
	}
}
