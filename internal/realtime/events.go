package realtime

import "encoding/json"

// Outbound event names.
const (
	EventSendMessage         = "send-message"
	EventSendVoiceMessage    = "send-voice-message"
	EventSendFileMessage     = "send-file-message"
	EventSendInvite          = "send-invite"
	EventInviteResponse      = "invite-response"
	EventConfirmResendInvite = "confirm-resend-invite"
)

// Inbound event names.
const (
	EventUserOnline          = "user-online"
	EventUserOffline         = "user-offline"
	EventOnlineSnapshot      = "online-users-snapshot"
	EventReceiveMessage      = "receive-message"
	EventReceiveVoiceMessage = "receive-voice-message"
	EventReceiveFileMessage  = "receive-file-message"
	EventInviteReceived      = "invite-received"
	EventInviteResult        = "invite-result"
	EventInviteFeedback      = "invite-feedback"

	// EventAck acknowledges an outbound message; AckID echoes the
	// client correlation ID and Data carries the server-persisted copy.
	EventAck = "ack"
)

// Envelope is the wire format of every realtime event in both
// directions: an event name plus an opaque JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	AckID string          `json:"ack_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PresencePayload is the payload of user-online and user-offline.
type PresencePayload struct {
	UserID string `json:"userID"`
	Name   string `json:"name,omitempty"`
}

// InvitePayload is the payload of send-invite and invite-received.
type InvitePayload struct {
	From     string `json:"from"`
	FromName string `json:"fromName"`
	To       string `json:"to"`
}

// InviteResponsePayload is the payload of invite-response.
type InviteResponsePayload struct {
	To       string `json:"to"`
	From     string `json:"from"`
	FromName string `json:"fromName"`
	Accepted bool   `json:"accepted"`
}

// InviteResultPayload is the payload of invite-result, delivered to the
// inviting side once the counterpart answered.
type InviteResultPayload struct {
	From     string `json:"from"`
	FromName string `json:"fromName"`
	Accepted bool   `json:"accepted"`
}

// InviteFeedbackPayload carries backend feedback on an invite attempt,
// including the resend-confirmation prompt after a prior decline.
type InviteFeedbackPayload struct {
	// Code is one of "unknown-user", "duplicate", "declined-before", "sent"
	Code string `json:"code"`

	// To is the invited user the feedback refers to
	To string `json:"to"`

	// Message is a human-readable explanation
	Message string `json:"message,omitempty"`
}

// AckPayload is the decoded payload of an ack event.
type AckPayload struct {
	// ClientID echoes the correlation ID of the acknowledged message
	ClientID string `json:"client_id"`

	// ID is the server-assigned message identifier
	ID string `json:"id,omitempty"`

	// Error is non-empty when the server rejected the message
	Error string `json:"error,omitempty"`
}
