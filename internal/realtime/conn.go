// Package realtime implements the client side of the websocket channel:
// a connection manager with an explicit lifecycle and a typed event
// router. The connection is injected into whoever needs it rather than
// shared as package-level state.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	// Voice and file payloads travel as base64 data URLs, so this is
	// far larger than a text frame needs.
	maxMessageSize = 16 * 1024 * 1024
)

// ErrConnClosed is returned when emitting on a closed connection.
var ErrConnClosed = errors.New("realtime connection is closed")

// Conn is a single realtime connection. It owns the read and write
// pumps, the event router and the ack correlation table. A Conn is
// closed exactly once; reconnecting means dialing a new one.
type Conn struct {
	conn   *websocket.Conn
	router *Router

	// Buffered channel of outbound frames
	send chan []byte

	// Pending acks keyed by client correlation ID
	ackMu sync.Mutex
	acks  map[string]chan AckPayload

	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens the realtime connection, attaching the identity as
// connection metadata in the handshake query. This is the sole point
// where the channel transitions from closed to open.
func Dial(ctx context.Context, socketURL string, identity *models.Identity) (*Conn, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return nil, fmt.Errorf("invalid socket URL: %w", err)
	}
	q := u.Query()
	q.Set("userID", identity.UserID)
	q.Set("name", identity.Name)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime channel: %w", err)
	}

	c := &Conn{
		conn:   ws,
		router: NewRouter(),
		send:   make(chan []byte, 256),
		acks:   make(map[string]chan AckPayload),
		done:   make(chan struct{}),
	}

	log.Info().Msgf("[realtime] connected as %s", identity.UserID)
	go c.writePump()
	go c.readPump()
	return c, nil
}

// Router exposes the connection's event router for handler binding.
func (c *Conn) Router() *Router {
	return c.router
}

// Done is closed when the connection has shut down, whether by Close or
// by a read failure.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Emit sends one event without waiting for an acknowledgment.
func (c *Conn) Emit(event string, payload any) error {
	frame, err := encodeEnvelope(event, "", payload)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrConnClosed
	}
}

// EmitWithAck sends one event and waits for the server acknowledgment
// matching ackID, or until the context expires.
func (c *Conn) EmitWithAck(ctx context.Context, event, ackID string, payload any) (AckPayload, error) {
	frame, err := encodeEnvelope(event, ackID, payload)
	if err != nil {
		return AckPayload{}, err
	}

	ch := make(chan AckPayload, 1)
	c.ackMu.Lock()
	c.acks[ackID] = ch
	c.ackMu.Unlock()
	defer func() {
		c.ackMu.Lock()
		delete(c.acks, ackID)
		c.ackMu.Unlock()
	}()

	select {
	case c.send <- frame:
	case <-c.done:
		return AckPayload{}, ErrConnClosed
	}

	select {
	case ack := <-ch:
		return ack, nil
	case <-ctx.Done():
		return AckPayload{}, ctx.Err()
	case <-c.done:
		return AckPayload{}, ErrConnClosed
	}
}

// Close deregisters all handlers and tears the connection down.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.router.Reset()
		close(c.done)
		err = c.conn.Close()
		log.Info().Msg("[realtime] connection closed")
	})
	return err
}

// readPump pumps inbound frames to the router. Runs in its own
// goroutine; exiting it closes the connection.
func (c *Conn) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("[realtime] read error")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			log.Warn().Err(err).Msg("[realtime] dropping malformed frame")
			continue
		}

		if env.Event == EventAck {
			c.resolveAck(env)
			continue
		}
		c.router.Dispatch(env)
	}
}

// writePump pumps queued frames to the websocket and keeps the
// connection alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

			// Send any queued frames as separate websocket frames so the
			// peer can parse each JSON envelope on its own.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// resolveAck hands an ack payload to whoever is waiting on it.
func (c *Conn) resolveAck(env Envelope) {
	var ack AckPayload
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		log.Warn().Err(err).Msg("[realtime] dropping malformed ack")
		return
	}
	if ack.ClientID == "" {
		ack.ClientID = env.AckID
	}

	c.ackMu.Lock()
	ch := c.acks[ack.ClientID]
	c.ackMu.Unlock()
	if ch != nil {
		ch <- ack
	}
}

// encodeEnvelope marshals an event payload into a wire frame.
func encodeEnvelope(event, ackID string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, AckID: ackID, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return frame, nil
}
