// Package composer constructs outbound messages and emits them over
// the realtime channel, reflecting each send into the conversation
// store optimistically. Every message follows the same lifecycle:
// pending on append, confirmed when the server acknowledgment carrying
// the persistent ID arrives, failed when it does not.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/realtime"
	"github.com/adi-253/Chatline/client/internal/store"
	"github.com/adi-253/Chatline/client/internal/storage"
)

var (
	// ErrNoActivePartner means no conversation partner is selected.
	ErrNoActivePartner = errors.New("no active conversation partner")

	// ErrEmptyMessage means the trimmed text was empty.
	ErrEmptyMessage = errors.New("message is empty")
)

// Emitter is the slice of the realtime connection the composer needs.
type Emitter interface {
	Emit(event string, payload any) error
	EmitWithAck(ctx context.Context, event, ackID string, payload any) (realtime.AckPayload, error)
}

// MetadataSaver records successful uploads with the backend.
type MetadataSaver interface {
	SaveFileMetadata(ctx context.Context, meta models.FileMetadata) error
}

// Composer builds and sends outbound messages.
type Composer struct {
	self         models.Identity
	conn         Emitter
	conversation *store.ConversationStore
	roster       *store.RosterStore
	uploads      *storage.Service
	metadata     MetadataSaver

	// ackTimeout bounds how long a pending message waits for its
	// acknowledgment before being marked failed.
	ackTimeout time.Duration

	// now is swapped in tests
	now func() time.Time
}

// New creates a composer for the signed-in user. metadata may be nil
// when file-metadata bookkeeping is not wanted.
func New(self models.Identity, conn Emitter, conversation *store.ConversationStore, roster *store.RosterStore, uploads *storage.Service, metadata MetadataSaver) *Composer {
	return &Composer{
		self:         self,
		conn:         conn,
		conversation: conversation,
		roster:       roster,
		uploads:      uploads,
		metadata:     metadata,
		ackTimeout:   10 * time.Second,
		now:          time.Now,
	}
}

// SendText sends a text message to the active partner. Empty trimmed
// text or a missing partner is a no-op error: nothing is emitted and no
// store is mutated. replyTo, when non-nil, is snapshotted onto the
// message.
func (c *Composer) SendText(ctx context.Context, text string, replyTo *models.Message) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	partnerID, _ := c.conversation.Partner()
	if partnerID == "" {
		return nil, ErrNoActivePartner
	}

	msg := models.Message{
		ClientID:  uuid.New().String(),
		Sender:    c.self.UserID,
		Receiver:  partnerID,
		Text:      text,
		Timestamp: c.now().UTC(),
		ReplyTo:   models.NewReplyRef(replyTo),
		Status:    models.StatusPending,
	}
	return c.dispatch(ctx, realtime.EventSendMessage, msg)
}

// SendVoice sends an assembled voice recording to the active partner.
func (c *Composer) SendVoice(ctx context.Context, rec *Recording, replyTo *models.Message) (*models.Message, error) {
	if rec == nil || len(rec.Data) == 0 {
		return nil, ErrEmptyMessage
	}
	partnerID, _ := c.conversation.Partner()
	if partnerID == "" {
		return nil, ErrNoActivePartner
	}

	msg := models.Message{
		ClientID:  uuid.New().String(),
		Sender:    c.self.UserID,
		Receiver:  partnerID,
		Audio:     rec.DataURL(),
		Duration:  rec.Duration,
		Timestamp: c.now().UTC(),
		ReplyTo:   models.NewReplyRef(replyTo),
		Status:    models.StatusPending,
	}
	return c.dispatch(ctx, realtime.EventSendVoiceMessage, msg)
}

// SendFile validates, uploads and sends a file attachment. The size
// ceiling is enforced before any network call; an upload failure
// surfaces as an error and appends nothing to the conversation.
func (c *Composer) SendFile(ctx context.Context, fileName, contentType string, data []byte, replyTo *models.Message) (*models.Message, error) {
	partnerID, _ := c.conversation.Partner()
	if partnerID == "" {
		return nil, ErrNoActivePartner
	}
	if int64(len(data)) > storage.MaxFileSize {
		return nil, storage.ErrFileTooLarge
	}

	meta, err := c.uploads.Upload(ctx, fileName, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("file upload failed: %w", err)
	}

	// Best-effort bookkeeping; the send proceeds even if this fails.
	if c.metadata != nil {
		if err := c.metadata.SaveFileMetadata(ctx, *meta); err != nil {
			log.Warn().Err(err).Msg("[composer] failed to save file metadata")
		}
	}

	msg := models.Message{
		ClientID:  uuid.New().String(),
		Sender:    c.self.UserID,
		Receiver:  partnerID,
		FileURL:   meta.URL,
		FileType:  contentType,
		FileName:  meta.FileName,
		FileSize:  int64(len(data)),
		Timestamp: c.now().UTC(),
		ReplyTo:   models.NewReplyRef(replyTo),
		Status:    models.StatusPending,
	}
	return c.dispatch(ctx, realtime.EventSendFileMessage, msg)
}

// dispatch validates, optimistically appends, updates the roster
// preview and emits the message, reconciling the pending entry once the
// acknowledgment lands.
func (c *Composer) dispatch(ctx context.Context, event string, msg models.Message) (*models.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	c.conversation.Append(msg)
	c.roster.SetPreview(msg.Receiver, msg)

	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.ackTimeout)
	go func() {
		defer cancel()
		ack, err := c.conn.EmitWithAck(ackCtx, event, msg.ClientID, msg)
		switch {
		case err != nil:
			log.Warn().Err(err).Msgf("[composer] no ack for %s", msg.ClientID)
			c.conversation.Fail(msg.ClientID)
		case ack.Error != "":
			log.Warn().Msgf("[composer] send rejected: %s", ack.Error)
			c.conversation.Fail(msg.ClientID)
		default:
			c.conversation.Confirm(msg.ClientID, ack.ID)
		}
	}()

	return &msg, nil
}
