package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/protocol"
)

const iceGatherTimeout = 10 * time.Second

// boardChannelID is the pre-negotiated SCTP stream both ends open, so
// neither side has to wait for OnDataChannel.
const boardChannelID uint16 = 0

// Signaler carries SDP offers and answers to one participant. *Client
// implements it over the relay.
type Signaler interface {
	Signal(kind, to string, payload []byte) error
}

// Mesh keeps one WebRTC data channel per remote participant and
// broadcasts board messages over them. Offers and answers travel through
// the Signaler.
//
// The board channel is ordered and reliable so a clear can never overtake
// the points sent before it. Reliability hints only matter on the relay.
type Mesh struct {
	localID    string
	signaler   Signaler
	iceServers []webrtc.ICEServer
	logger     *slog.Logger
	onMessage  func(payload []byte, from string)

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	links map[string]*link
}

type link struct {
	peer    string
	pc      *webrtc.PeerConnection
	channel *webrtc.DataChannel
}

var _ engine.Transport = (*Mesh)(nil)

// NewMesh creates an empty mesh. onMessage runs on pion's goroutines.
func NewMesh(localID string, signaler Signaler, iceURLs []string, logger *slog.Logger, onMessage func(payload []byte, from string)) *Mesh {
	var servers []webrtc.ICEServer
	if len(iceURLs) > 0 {
		servers = []webrtc.ICEServer{{URLs: iceURLs}}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Mesh{
		localID:    localID,
		signaler:   signaler,
		iceServers: servers,
		logger:     logger.With("transport", "webrtc"),
		onMessage:  onMessage,
		ctx:        ctx,
		cancel:     cancel,
		links:      make(map[string]*link),
	}
}

// PeerJoined starts negotiation with peer. Of each pair, the participant
// with the smaller id sends the offer.
func (m *Mesh) PeerJoined(peer string) {
	if peer == m.localID || m.localID > peer {
		return
	}
	go func() {
		if err := m.offer(peer); err != nil {
			m.logger.Warn("WebRTC offer failed", "peer", peer, "error", err)
			m.PeerLeft(peer)
		}
	}()
}

// HandleSignal processes an offer or answer relayed from peer.
func (m *Mesh) HandleSignal(kind, peer string, payload []byte) {
	switch kind {
	case KindOffer:
		go func() {
			if err := m.answer(peer, string(payload)); err != nil {
				m.logger.Warn("WebRTC answer failed", "peer", peer, "error", err)
				m.PeerLeft(peer)
			}
		}()
	case KindAnswer:
		m.mu.Lock()
		l, ok := m.links[peer]
		m.mu.Unlock()
		if !ok {
			m.logger.Debug("answer from unknown peer", "peer", peer)
			return
		}
		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: string(payload)}
		if err := l.pc.SetRemoteDescription(desc); err != nil {
			m.logger.Warn("setting remote answer failed", "peer", peer, "error", err)
			m.PeerLeft(peer)
		}
	}
}

// PeerLeft tears down the link to peer, if any.
func (m *Mesh) PeerLeft(peer string) {
	m.mu.Lock()
	l, ok := m.links[peer]
	delete(m.links, peer)
	m.mu.Unlock()
	if ok {
		l.pc.Close()
	}
}

// Send writes payload to every open link. It returns
// engine.ErrTransportUnavailable when no link is open.
func (m *Mesh) Send(payload []byte, _ protocol.Reliability) error {
	m.mu.Lock()
	open := make([]*link, 0, len(m.links))
	for _, l := range m.links {
		if l.channel.ReadyState() == webrtc.DataChannelStateOpen {
			open = append(open, l)
		}
	}
	m.mu.Unlock()

	if len(open) == 0 {
		return engine.ErrTransportUnavailable
	}
	var errs []error
	for _, l := range open {
		if err := l.channel.Send(payload); err != nil {
			errs = append(errs, fmt.Errorf("peer %s: %w", l.peer, err))
		}
	}
	return errors.Join(errs...)
}

// Connected returns the ids of participants with an open channel.
func (m *Mesh) Connected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, l := range m.links {
		if l.channel.ReadyState() == webrtc.DataChannelStateOpen {
			ids = append(ids, id)
		}
	}
	return ids
}

// Close tears down every link.
func (m *Mesh) Close() error {
	m.cancel()
	m.mu.Lock()
	links := m.links
	m.links = make(map[string]*link)
	m.mu.Unlock()

	var errs []error
	for _, l := range links {
		if err := l.pc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Mesh) offer(peer string) error {
	l, err := m.newLink(peer)
	if err != nil {
		return err
	}
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("creating SDP offer: %w", err)
	}
	sdp, err := m.gather(l.pc, offer)
	if err != nil {
		return err
	}
	if err := m.signaler.Signal(KindOffer, peer, []byte(sdp)); err != nil {
		return fmt.Errorf("publishing SDP offer: %w", err)
	}
	m.logger.Info("WebRTC offer published", "peer", peer)
	return nil
}

func (m *Mesh) answer(peer, sdp string) error {
	l, err := m.newLink(peer)
	if err != nil {
		return err
	}
	remote := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := l.pc.SetRemoteDescription(remote); err != nil {
		return fmt.Errorf("setting remote description: %w", err)
	}
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("creating SDP answer: %w", err)
	}
	local, err := m.gather(l.pc, answer)
	if err != nil {
		return err
	}
	if err := m.signaler.Signal(KindAnswer, peer, []byte(local)); err != nil {
		return fmt.Errorf("publishing SDP answer: %w", err)
	}
	m.logger.Info("WebRTC answer published", "peer", peer)
	return nil
}

// gather sets desc as the local description and waits for ICE gathering to
// finish, returning the complete SDP.
func (m *Mesh) gather(pc *webrtc.PeerConnection, desc webrtc.SessionDescription) (string, error) {
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(desc); err != nil {
		return "", fmt.Errorf("setting local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-time.After(iceGatherTimeout):
		return "", fmt.Errorf("ICE gathering timed out after %s", iceGatherTimeout)
	case <-m.ctx.Done():
		return "", m.ctx.Err()
	}
	return pc.LocalDescription().SDP, nil
}

// newLink creates a peer connection with the pre-negotiated board channel
// and registers it, replacing any previous link to peer.
func (m *Mesh) newLink(peer string) (*link, error) {
	settingEngine := webrtc.SettingEngine{}
	settingEngine.SetIncludeLoopbackCandidate(true)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: m.iceServers})
	if err != nil {
		return nil, fmt.Errorf("creating PeerConnection: %w", err)
	}

	ordered := true
	negotiated := true
	id := boardChannelID
	channel, err := pc.CreateDataChannel("board", &webrtc.DataChannelInit{
		Ordered:    &ordered,
		Negotiated: &negotiated,
		ID:         &id,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("creating board data channel: %w", err)
	}
	channel.OnOpen(func() {
		m.logger.Info("WebRTC channel open", "peer", peer)
	})
	channel.OnMessage(func(msg webrtc.DataChannelMessage) {
		if m.onMessage != nil {
			m.onMessage(msg.Data, peer)
		}
	})

	l := &link{peer: peer, pc: pc, channel: channel}
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		m.logger.Debug("ICE state changed", "peer", peer, "state", state.String())
		if state == webrtc.ICEConnectionStateFailed || state == webrtc.ICEConnectionStateClosed {
			m.dropLink(l)
		}
	})

	m.mu.Lock()
	previous := m.links[peer]
	m.links[peer] = l
	m.mu.Unlock()
	if previous != nil {
		previous.pc.Close()
	}
	return l, nil
}

// dropLink removes l only if it is still the current link for its peer.
func (m *Mesh) dropLink(l *link) {
	m.mu.Lock()
	if m.links[l.peer] == l {
		delete(m.links, l.peer)
	}
	m.mu.Unlock()
}
