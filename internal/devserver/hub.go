package devserver

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/realtime"
)

// Hub maintains the set of connected users and routes realtime events
// between them: presence, direct messages and the invite handshake.
type Hub struct {
	store *Store

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates a hub over the given store.
func NewHub(store *Store) *Hub {
	return &Hub{
		store:   store,
		clients: make(map[string]*client),
	}
}

// register adds a connected user: the newcomer gets a presence
// snapshot, everyone else gets an incremental user-online.
func (h *Hub) register(cl *client) {
	h.mu.Lock()
	if old, ok := h.clients[cl.userID]; ok {
		// One connection per user; a reconnect replaces the old one.
		close(old.send)
	}
	h.clients[cl.userID] = cl
	snapshot := make([]models.PresenceEntry, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, models.PresenceEntry{UserID: c.userID, Name: c.name})
	}
	h.mu.Unlock()

	log.Info().Msgf("[hub] %s connected (%d online)", cl.userID, len(snapshot))
	h.sendTo(cl.userID, realtime.EventOnlineSnapshot, snapshot)
	h.broadcastExcept(cl.userID, realtime.EventUserOnline, realtime.PresencePayload{UserID: cl.userID, Name: cl.name})
}

// unregister removes a user and announces them offline. When a
// replacement connection has already taken over the map slot, the user
// is still online and no offline event goes out.
func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	current := h.clients[cl.userID] == cl
	if current {
		delete(h.clients, cl.userID)
		close(cl.send)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if !current {
		return
	}
	log.Info().Msgf("[hub] %s disconnected (%d online)", cl.userID, remaining)
	h.broadcastExcept(cl.userID, realtime.EventUserOffline, realtime.PresencePayload{UserID: cl.userID})
}

// handleFrame routes one inbound envelope from a connected user.
func (h *Hub) handleFrame(from *client, env realtime.Envelope) {
	switch env.Event {
	case realtime.EventSendMessage, realtime.EventSendVoiceMessage, realtime.EventSendFileMessage:
		h.handleSend(from, env)
	case realtime.EventSendInvite:
		h.handleInvite(from, env, false)
	case realtime.EventConfirmResendInvite:
		h.handleInvite(from, env, true)
	case realtime.EventInviteResponse:
		h.handleInviteResponse(from, env)
	default:
		log.Debug().Msgf("[hub] ignoring event %q from %s", env.Event, from.userID)
	}
}

// handleSend persists a message, acks the sender and forwards the
// stored copy to the receiver if online.
func (h *Hub) handleSend(from *client, env realtime.Envelope) {
	var msg models.Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		log.Warn().Err(err).Msg("[hub] bad message payload")
		return
	}
	msg.Sender = from.userID

	stored := h.store.AppendMessage(msg)
	h.ack(from, realtime.AckPayload{ClientID: stored.ClientID, ID: stored.ID})

	receiveEvent := map[string]string{
		realtime.EventSendMessage:      realtime.EventReceiveMessage,
		realtime.EventSendVoiceMessage: realtime.EventReceiveVoiceMessage,
		realtime.EventSendFileMessage:  realtime.EventReceiveFileMessage,
	}[env.Event]
	h.sendTo(stored.Receiver, receiveEvent, stored)
}

// handleInvite validates and forwards a friend request. A request to a
// previously declining user needs the confirm-resend event.
func (h *Hub) handleInvite(from *client, env realtime.Envelope, confirmed bool) {
	var p realtime.InvitePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Warn().Err(err).Msg("[hub] bad invite payload")
		return
	}
	p.From = from.userID
	if p.FromName == "" {
		p.FromName = from.name
	}

	if !confirmed && h.store.HasDeclined(p.From, p.To) {
		h.sendTo(p.From, realtime.EventInviteFeedback, realtime.InviteFeedbackPayload{
			Code:    "declined-before",
			To:      p.To,
			Message: "your previous invite was declined; confirm to send again",
		})
		return
	}

	if err := h.store.AddRequest(models.FriendRequest{
		FromUserID: p.From,
		FromName:   p.FromName,
		ToUserID:   p.To,
	}); err != nil {
		h.sendTo(p.From, realtime.EventInviteFeedback, realtime.InviteFeedbackPayload{
			Code:    "duplicate",
			To:      p.To,
			Message: err.Error(),
		})
		return
	}

	if !h.sendTo(p.To, realtime.EventInviteReceived, p) {
		h.sendTo(p.From, realtime.EventInviteFeedback, realtime.InviteFeedbackPayload{
			Code:    "offline",
			To:      p.To,
			Message: "user is offline; they will see the request later",
		})
	}
}

// handleInviteResponse relays the answer back to the inviting side.
func (h *Hub) handleInviteResponse(from *client, env realtime.Envelope) {
	var p realtime.InviteResponsePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Warn().Err(err).Msg("[hub] bad invite response")
		return
	}
	h.sendTo(p.To, realtime.EventInviteResult, realtime.InviteResultPayload{
		From:     from.userID,
		FromName: from.name,
		Accepted: p.Accepted,
	})
}

// ack sends an acknowledgment frame back to the sender.
func (h *Hub) ack(to *client, payload realtime.AckPayload) {
	frame, err := encodeFrame(realtime.EventAck, payload.ClientID, payload)
	if err != nil {
		return
	}
	to.trySend(frame)
}

// sendTo delivers one event to a user. Returns false when they are not
// connected.
func (h *Hub) sendTo(userID, event string, payload any) bool {
	h.mu.RLock()
	cl := h.clients[userID]
	h.mu.RUnlock()
	if cl == nil {
		return false
	}
	frame, err := encodeFrame(event, "", payload)
	if err != nil {
		return false
	}
	return cl.trySend(frame)
}

// broadcastExcept delivers one event to every connected user but one.
func (h *Hub) broadcastExcept(exceptID, event string, payload any) {
	frame, err := encodeFrame(event, "", payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, cl := range h.clients {
		if id == exceptID {
			continue
		}
		cl.trySend(frame)
	}
}

// encodeFrame marshals an event envelope.
func encodeFrame(event, ackID string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msgf("[hub] failed to marshal %s payload", event)
		return nil, err
	}
	return json.Marshal(realtime.Envelope{Event: event, AckID: ackID, Data: data})
}
