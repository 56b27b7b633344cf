package models

import (
	"errors"
	"time"
)

// Status tracks the local delivery lifecycle of an outbound message.
// It is view state only and never crosses the wire.
type Status string

const (
	// StatusPending means the message was appended optimistically and is
	// waiting for a server acknowledgment.
	StatusPending Status = "pending"

	// StatusConfirmed means the server acknowledged the message and
	// assigned it a persistent ID.
	StatusConfirmed Status = "confirmed"

	// StatusFailed means the acknowledgment never arrived or carried an error.
	StatusFailed Status = "failed"
)

// Message represents a single chat message between two users.
// Exactly one of Text, Audio or FileURL is populated on outbound
// messages. Messages are never mutated after creation except for
// status reconciliation against the server-acknowledged copy.
type Message struct {
	// ID is the server-assigned identifier, empty until confirmed
	ID string `json:"id,omitempty"`

	// ClientID is the client-generated correlation ID used to reconcile
	// an optimistic append against the server acknowledgment
	ClientID string `json:"client_id,omitempty"`

	// Sender is the author's user ID
	Sender string `json:"sender"`

	// Receiver is the recipient's user ID
	Receiver string `json:"receiver"`

	// Text is the plain text body, if this is a text message
	Text string `json:"text,omitempty"`

	// Audio is the base64 data URL of the voice payload, if this is a voice message
	Audio string `json:"audio,omitempty"`

	// Duration is the voice recording length in whole seconds
	Duration int `json:"duration,omitempty"`

	// FileURL points at the uploaded object, if this is a file message
	FileURL string `json:"file,omitempty"`

	// FileType is the MIME type of the uploaded file
	FileType string `json:"file_type,omitempty"`

	// FileName is the original (sanitized) file name
	FileName string `json:"file_name,omitempty"`

	// FileSize is the file size in bytes
	FileSize int64 `json:"file_size,omitempty"`

	// Timestamp is the client-synthesized send time
	Timestamp time.Time `json:"timestamp"`

	// ReplyTo carries the optional reply snapshot
	ReplyTo *ReplyRef `json:"reply_to,omitempty"`

	// Status is the local delivery state; not serialized
	Status Status `json:"-"`
}

// ErrAmbiguousPayload is returned when a message does not carry exactly
// one of text, audio or file payload.
var ErrAmbiguousPayload = errors.New("message must carry exactly one of text, audio or file")

// Validate checks that exactly one payload kind is populated.
// Applied to outbound messages at construction time; inbound messages
// are accepted as-is since the backend owns their shape.
func (m *Message) Validate() error {
	n := 0
	if m.Text != "" {
		n++
	}
	if m.Audio != "" {
		n++
	}
	if m.FileURL != "" {
		n++
	}
	if n != 1 {
		return ErrAmbiguousPayload
	}
	return nil
}

// ReplyRef is a denormalized snapshot of a prior message, embedded in a
// new message to render "replying to" context. It is a value copy with
// no referential integrity: it stays intact regardless of what happens
// to the original message.
type ReplyRef struct {
	// MessageID is the original message's server ID, when it had one
	MessageID string `json:"message_id,omitempty"`

	// Text is copied from the original text body, if present
	Text string `json:"text,omitempty"`

	// Audio is copied from the original voice payload, if present
	Audio string `json:"audio,omitempty"`

	// Duration is copied alongside Audio
	Duration int `json:"duration,omitempty"`

	// FileType is copied from the original file message, if present
	FileType string `json:"file_type,omitempty"`

	// FileName is copied alongside FileType
	FileName string `json:"file_name,omitempty"`
}

// NewReplyRef builds a reply snapshot from a source message.
// It carries forward exactly the payload subset present on the source
// and never invents fields the source did not have.
func NewReplyRef(src *Message) *ReplyRef {
	if src == nil {
		return nil
	}
	ref := &ReplyRef{MessageID: src.ID}
	switch {
	case src.Text != "":
		ref.Text = src.Text
	case src.Audio != "":
		ref.Audio = src.Audio
		ref.Duration = src.Duration
	case src.FileURL != "":
		ref.FileType = src.FileType
		ref.FileName = src.FileName
	}
	return ref
}
