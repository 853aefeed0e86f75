package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SyncBoard/internal/engine"
	"SyncBoard/internal/protocol"
)

// ErrNoWelcome is returned by Dial when the hub does not greet the client.
var ErrNoWelcome = errors.New("relay did not send a welcome frame")

// Events receives frames from the relay. Nil callbacks are skipped. All
// callbacks run on the goroutine that called Run.
type Events struct {
	OnData   func(payload []byte, from string)
	OnJoin   func(peer string)
	OnLeave  func(peer string)
	OnSignal func(kind, from string, payload []byte)
}

// Client is one participant's connection to a Hub. It implements
// engine.Transport.
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

var _ engine.Transport = (*Client)(nil)

// Dial connects to the hub at url (ws://host:port/ws) and waits for the
// welcome frame that assigns the client id.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing relay %s: %w", url, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading welcome: %w", err)
	}
	env, err := decodeEnvelope(data)
	if err != nil || env.Kind != KindWelcome || env.To == "" {
		conn.Close()
		return nil, ErrNoWelcome
	}
	conn.SetReadDeadline(time.Time{})

	c := &Client{
		id:     env.To,
		conn:   conn,
		logger: logger.With("participant", env.To),
		send:   make(chan []byte, DefaultQueueSize),
		closed: make(chan struct{}),
	}
	go c.writeLoop()
	return c, nil
}

// ID is the id the hub assigned to this client.
func (c *Client) ID() string { return c.id }

// Run dispatches inbound frames to ev until the connection closes or ctx is
// cancelled.
func (c *Client) Run(ctx context.Context, ev Events) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading from relay: %w", err)
		}
		env, err := decodeEnvelope(data)
		if err != nil {
			c.logger.Warn("dropping undecodable frame", "error", err)
			continue
		}
		switch env.Kind {
		case KindData:
			if ev.OnData != nil {
				ev.OnData(env.Payload, env.From)
			}
		case KindJoin:
			if ev.OnJoin != nil {
				ev.OnJoin(env.From)
			}
		case KindLeave:
			if ev.OnLeave != nil {
				ev.OnLeave(env.From)
			}
		case KindOffer, KindAnswer:
			if ev.OnSignal != nil {
				ev.OnSignal(env.Kind, env.From, env.Payload)
			}
		}
	}
}

// Send relays payload to every other participant.
func (c *Client) Send(payload []byte, reliability protocol.Reliability) error {
	return c.enqueue(Envelope{Kind: KindData, Reliability: reliability, Payload: payload}, reliability)
}

// Signal routes a WebRTC offer or answer to one participant.
func (c *Client) Signal(kind, to string, payload []byte) error {
	return c.enqueue(Envelope{Kind: kind, To: to, Payload: payload}, protocol.Reliable)
}

func (c *Client) enqueue(env Envelope, reliability protocol.Reliability) error {
	frame, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return engine.ErrTransportUnavailable
	default:
	}

	if reliability == protocol.Lossy {
		select {
		case c.send <- frame:
		default:
			c.logger.Debug("outbound queue full, dropping lossy frame")
		}
		return nil
	}

	timer := time.NewTimer(reliableTimeout)
	defer timer.Stop()
	select {
	case c.send <- frame:
		return nil
	case <-c.closed:
		return engine.ErrTransportUnavailable
	case <-timer.C:
		return fmt.Errorf("relay send: %w", context.DeadlineExceeded)
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.logger.Warn("write to relay failed", "error", err)
				c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// Close disconnects from the relay. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
