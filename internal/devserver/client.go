package devserver

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/realtime"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; voice and file payloads
	// arrive as base64 data URLs
	maxMessageSize = 16 * 1024 * 1024
)

// client represents a single connected user.
type client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	userID string
	name   string
}

func newClient(hub *Hub, conn *websocket.Conn, userID, name string) *client {
	return &client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		name:   name,
	}
}

// trySend queues a frame, dropping it when the client's buffer is full.
func (c *client) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		log.Warn().Msgf("[hub] dropping frame for slow client %s", c.userID)
		return false
	}
}

// readPump pumps envelopes from the websocket connection to the hub.
// Runs in its own goroutine per client.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

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
				log.Warn().Err(err).Msgf("[hub] read error from %s", c.userID)
			}
			break
		}

		var env realtime.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			log.Warn().Err(err).Msgf("[hub] malformed frame from %s", c.userID)
			continue
		}
		c.hub.handleFrame(c, env)
	}
}

// writePump pumps frames from the hub to the websocket connection.
// Runs in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each envelope goes out as its own frame so the client can
			// parse them independently.
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
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
		}
	}
}
