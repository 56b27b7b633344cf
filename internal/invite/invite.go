// Package invite manages the friend-request flow: a small state
// machine per relationship, driven by a mix of REST calls (persisting
// accept/decline) and realtime events (propagating to the counterpart).
package invite

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/realtime"
)

// State is the relationship state with one counterpart.
type State string

const (
	StateNone            State = "none"
	StateRequestSent     State = "request-sent"
	StateRequestReceived State = "request-received"
	StateAccepted        State = "accepted"
	StateDeclined        State = "declined"
)

var (
	// ErrSelfInvite means the user tried to invite themselves.
	ErrSelfInvite = errors.New("cannot invite yourself")

	// ErrAlreadyPending means a request to that user is already outstanding.
	ErrAlreadyPending = errors.New("a request to this user is already pending")

	// ErrAlreadyFriends means the relationship is already accepted.
	ErrAlreadyFriends = errors.New("already connected with this user")

	// ErrResendNeedsConfirmation means the previous invite was declined;
	// sending again requires an explicit user confirmation.
	ErrResendNeedsConfirmation = errors.New("previous invite was declined, confirm to resend")

	// ErrNoRequest means there is no incoming request to answer.
	ErrNoRequest = errors.New("no incoming request from this user")
)

// Emitter is the slice of the realtime connection the flow needs.
type Emitter interface {
	Emit(event string, payload any) error
}

// Responder persists accept/decline decisions via REST.
type Responder interface {
	RespondRequest(ctx context.Context, userID, senderID, action string) error
	Requests(ctx context.Context, userID string) (*models.RequestsResponse, error)
}

// Flow tracks relationship state per counterpart. Requests are never
// deleted; declined ones stay declined until an explicit resend.
type Flow struct {
	self models.Identity
	conn Emitter
	rest Responder

	mu     sync.Mutex
	states map[string]State

	// names remembers the display name attached to an incoming request
	// so accepting it can surface the counterpart
	names map[string]string
}

// NewFlow creates a flow for the signed-in user.
func NewFlow(self models.Identity, conn Emitter, rest Responder) *Flow {
	return &Flow{
		self:   self,
		conn:   conn,
		rest:   rest,
		states: make(map[string]State),
		names:  make(map[string]string),
	}
}

// Load folds the backend's request listing into the state table.
func (f *Flow) Load(ctx context.Context) error {
	resp, err := f.rest.Requests(ctx, f.self.UserID)
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range resp.Received {
		f.states[req.FromUserID] = stateFor(req.Status, true)
		f.names[req.FromUserID] = req.FromName
	}
	for _, req := range resp.Sent {
		f.states[req.ToUserID] = stateFor(req.Status, false)
	}
	return nil
}

// Send emits an invite to another user, moving the relationship from
// none to request-sent. A previously declined invite needs
// ConfirmResend instead.
func (f *Flow) Send(toID string) error {
	if toID == "" || toID == f.self.UserID {
		return ErrSelfInvite
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.states[toID] {
	case StateRequestSent:
		return ErrAlreadyPending
	case StateAccepted:
		return ErrAlreadyFriends
	case StateDeclined:
		return ErrResendNeedsConfirmation
	}

	if err := f.conn.Emit(realtime.EventSendInvite, realtime.InvitePayload{
		From:     f.self.UserID,
		FromName: f.self.Name,
		To:       toID,
	}); err != nil {
		return err
	}
	f.states[toID] = StateRequestSent
	log.Info().Msgf("[invite] sent invite to %s", toID)
	return nil
}

// ConfirmResend re-sends an invite after a prior decline, once the user
// explicitly confirmed the resend prompt.
func (f *Flow) ConfirmResend(toID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states[toID] != StateDeclined {
		return fmt.Errorf("no declined invite to %s to resend", toID)
	}

	if err := f.conn.Emit(realtime.EventConfirmResendInvite, realtime.InvitePayload{
		From:     f.self.UserID,
		FromName: f.self.Name,
		To:       toID,
	}); err != nil {
		return err
	}
	f.states[toID] = StateRequestSent
	log.Info().Msgf("[invite] re-sent invite to %s", toID)
	return nil
}

// Accept answers an incoming request: persists the decision via REST,
// then notifies the counterpart over the realtime channel.
func (f *Flow) Accept(ctx context.Context, fromID string) error {
	return f.respond(ctx, fromID, true)
}

// Decline answers an incoming request negatively.
func (f *Flow) Decline(ctx context.Context, fromID string) error {
	return f.respond(ctx, fromID, false)
}

func (f *Flow) respond(ctx context.Context, fromID string, accepted bool) error {
	f.mu.Lock()
	if f.states[fromID] != StateRequestReceived {
		f.mu.Unlock()
		return ErrNoRequest
	}
	f.mu.Unlock()

	action := "decline"
	if accepted {
		action = "accept"
	}
	if err := f.rest.RespondRequest(ctx, f.self.UserID, fromID, action); err != nil {
		return fmt.Errorf("failed to persist %s: %w", action, err)
	}

	if err := f.conn.Emit(realtime.EventInviteResponse, realtime.InviteResponsePayload{
		To:       fromID,
		From:     f.self.UserID,
		FromName: f.self.Name,
		Accepted: accepted,
	}); err != nil {
		// The decision is already persisted; the counterpart catches up
		// on its next request fetch.
		log.Warn().Err(err).Msgf("[invite] failed to notify %s", fromID)
	}

	f.mu.Lock()
	if accepted {
		f.states[fromID] = StateAccepted
	} else {
		f.states[fromID] = StateDeclined
	}
	f.mu.Unlock()
	log.Info().Msgf("[invite] %sed request from %s", action, fromID)
	return nil
}

// HandleInviteReceived records an incoming invite from the realtime
// channel.
func (f *Flow) HandleInviteReceived(p realtime.InvitePayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[p.From] = StateRequestReceived
	f.names[p.From] = p.FromName
}

// HandleInviteResult records the counterpart's answer to our invite.
func (f *Flow) HandleInviteResult(p realtime.InviteResultPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Accepted {
		f.states[p.From] = StateAccepted
	} else {
		f.states[p.From] = StateDeclined
	}
}

// State returns the relationship state with a counterpart.
func (f *Flow) State(userID string) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[userID]; ok {
		return s
	}
	return StateNone
}

// Name returns the display name attached to a counterpart's request.
func (f *Flow) Name(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[userID]
}

// stateFor maps a persisted request status onto the local state,
// depending on which side of the request we are.
func stateFor(status models.RequestStatus, received bool) State {
	switch status {
	case models.RequestAccepted:
		return StateAccepted
	case models.RequestDeclined:
		return StateDeclined
	default:
		if received {
			return StateRequestReceived
		}
		return StateRequestSent
	}
}
