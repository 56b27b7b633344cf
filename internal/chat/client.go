// Package chat wires the whole client together: session bootstrap,
// realtime connection, event routing into the stores, the composer and
// the invite flow. It is the programmatic surface the terminal front
// end renders.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/api"
	"github.com/adi-253/Chatline/client/internal/cache"
	"github.com/adi-253/Chatline/client/internal/composer"
	"github.com/adi-253/Chatline/client/internal/config"
	"github.com/adi-253/Chatline/client/internal/invite"
	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/realtime"
	"github.com/adi-253/Chatline/client/internal/session"
	"github.com/adi-253/Chatline/client/internal/store"
	"github.com/adi-253/Chatline/client/internal/storage"
)

// Client is one signed-in chat session.
type Client struct {
	cfg      *config.Config
	self     models.Identity
	tokens   *session.Store
	rest     *api.Client
	conn     *realtime.Conn
	cache    *cache.Session
	notifier Notifier

	// Roster and Conversation are the view state the front end reads.
	Roster       *store.RosterStore
	Conversation *store.ConversationStore

	// Composer sends messages; Invites drives the friend-request flow.
	Composer *composer.Composer
	Invites  *invite.Flow

	mu        sync.Mutex
	onMessage func(models.Message)
}

// SetOnMessage installs a callback invoked for every inbound message,
// after the stores have been updated. The front end uses it to render
// incoming traffic as it arrives.
func (c *Client) SetOnMessage(fn func(models.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// Connect bootstraps the session and opens the realtime channel. A
// missing or malformed token yields an error and the caller treats the
// session as unauthenticated.
func Connect(ctx context.Context, cfg *config.Config, notifier Notifier) (*Client, error) {
	tokens := session.NewStore(cfg.TokenPath)
	identity, token, err := session.Bootstrap(tokens)
	if err != nil {
		return nil, err
	}

	conn, err := realtime.Dial(ctx, cfg.SocketURL, identity)
	if err != nil {
		return nil, err
	}

	sess, err := cache.Open(cfg.CacheDir)
	if err != nil {
		// The cache is best-effort; run without it.
		log.Warn().Err(err).Msg("[chat] session cache unavailable")
	}

	rest := api.NewClient(cfg.APIBaseURL, token)
	roster := store.NewRosterStore()
	conversation := store.NewConversationStore()

	uploads := storage.NewService(
		storage.NewCloudinaryClient(cfg.CloudinaryURL, cfg.CloudinaryPreset, ""),
		storage.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket),
	)

	c := &Client{
		cfg:          cfg,
		self:         *identity,
		tokens:       tokens,
		rest:         rest,
		conn:         conn,
		cache:        sess,
		notifier:     notifier,
		Roster:       roster,
		Conversation: conversation,
	}
	c.Composer = composer.New(*identity, conn, conversation, roster, uploads, rest)
	c.Invites = invite.NewFlow(*identity, conn, rest)

	c.bind()
	if err := c.loadInitialState(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// Self returns the signed-in identity.
func (c *Client) Self() models.Identity {
	return c.self
}

// Done is closed when the realtime connection has shut down. There is
// no automatic reconnect; the owning front end decides whether to
// connect again.
func (c *Client) Done() <-chan struct{} {
	return c.conn.Done()
}

// bind registers every inbound event handler on the connection's
// router. Registration replaces any previous handler, so calling bind
// after a reconnect is safe.
func (c *Client) bind() {
	r := c.conn.Router()

	r.On(realtime.EventUserOnline, func(data json.RawMessage) {
		var p realtime.PresencePayload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Msg("[chat] bad user-online payload")
			return
		}
		c.Roster.SetOnline(models.PresenceEntry{UserID: p.UserID, Name: p.Name})
	})

	r.On(realtime.EventUserOffline, func(data json.RawMessage) {
		var p realtime.PresencePayload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Msg("[chat] bad user-offline payload")
			return
		}
		c.Roster.SetOffline(p.UserID)
	})

	r.On(realtime.EventOnlineSnapshot, func(data json.RawMessage) {
		var list []models.PresenceEntry
		if err := json.Unmarshal(data, &list); err != nil {
			log.Warn().Err(err).Msg("[chat] bad presence snapshot")
			return
		}
		c.Roster.ReplaceOnline(list)
	})

	for _, event := range []string{
		realtime.EventReceiveMessage,
		realtime.EventReceiveVoiceMessage,
		realtime.EventReceiveFileMessage,
	} {
		r.On(event, c.handleInboundMessage)
	}

	r.On(realtime.EventInviteReceived, func(data json.RawMessage) {
		var p realtime.InvitePayload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Msg("[chat] bad invite payload")
			return
		}
		c.Invites.HandleInviteReceived(p)
		if c.notifier != nil {
			c.notifier.Notify(fmt.Sprintf("%s (%s) invited you to chat", p.FromName, p.From))
		}
	})

	r.On(realtime.EventInviteResult, func(data json.RawMessage) {
		var p realtime.InviteResultPayload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Msg("[chat] bad invite result")
			return
		}
		c.Invites.HandleInviteResult(p)
		if !p.Accepted {
			return
		}
		friend := models.Friend{UserID: p.From, Name: p.FromName}
		c.Roster.AddFriend(friend)
		// Opening the conversation fetches history over REST; keep the
		// read loop free while it runs.
		go func() {
			if err := c.OpenConversation(context.Background(), friend); err != nil {
				c.report(err)
			}
		}()
	})

	r.On(realtime.EventInviteFeedback, func(data json.RawMessage) {
		var p realtime.InviteFeedbackPayload
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warn().Err(err).Msg("[chat] bad invite feedback")
			return
		}
		if c.notifier != nil && p.Message != "" {
			c.notifier.Notify(p.Message)
		}
	})
}

// handleInboundMessage appends a received message to the active
// conversation when it comes from the active partner, and always
// updates the sender's roster preview.
func (c *Client) handleInboundMessage(data json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Msg("[chat] bad inbound message")
		return
	}
	msg.Status = models.StatusConfirmed

	c.Conversation.AppendIfFrom(msg.Sender, msg)
	c.Roster.SetPreview(msg.Sender, msg)

	c.mu.Lock()
	fn := c.onMessage
	c.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// loadInitialState fetches the roster, the previews and the pending
// requests, then restores the cached active conversation if any.
func (c *Client) loadInitialState(ctx context.Context) error {
	friends, err := c.rest.Friends(ctx, c.self.UserID)
	if err != nil {
		return fmt.Errorf("failed to load friends: %w", err)
	}
	c.Roster.SetFriends(friends)

	if last, err := c.rest.LastMessages(ctx, c.self.UserID); err != nil {
		// Previews are cosmetic; carry on without them.
		log.Warn().Err(err).Msg("[chat] failed to load last messages")
	} else {
		c.Roster.ApplyLastMessages(c.self.UserID, last)
	}

	if err := c.Invites.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("[chat] failed to load requests")
	}

	if friend, ok := c.cache.ActiveFriend(); ok {
		epoch := c.Conversation.SetPartner(friend.UserID, friend.Name)
		if msgs, ok := c.cache.Messages(friend.UserID); ok {
			c.Conversation.Replace(epoch, msgs)
		}
		// Refresh from the backend; stale results are discarded by the
		// epoch guard if the user switches away meanwhile.
		go c.refreshHistory(epoch, friend.UserID)
	}
	return nil
}

// OpenConversation switches the active conversation to a friend:
// partner set, history fetched and replaced wholesale, result cached
// per partner.
func (c *Client) OpenConversation(ctx context.Context, friend models.Friend) error {
	epoch := c.Conversation.SetPartner(friend.UserID, friend.Name)
	if err := c.cache.SaveActiveFriend(friend); err != nil {
		log.Warn().Err(err).Msg("[chat] failed to cache active friend")
	}

	msgs, err := c.rest.Messages(ctx, c.self.UserID, friend.UserID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if !c.Conversation.Replace(epoch, msgs) {
		// The user already switched away; this fetch lost the race.
		log.Debug().Msgf("[chat] discarding stale history for %s", friend.UserID)
		return nil
	}
	if err := c.cache.SaveMessages(friend.UserID, msgs); err != nil {
		log.Warn().Err(err).Msg("[chat] failed to cache messages")
	}
	return nil
}

// refreshHistory re-fetches a conversation in the background, honoring
// the epoch guard.
func (c *Client) refreshHistory(epoch uint64, partnerID string) {
	msgs, err := c.rest.Messages(context.Background(), c.self.UserID, partnerID)
	if err != nil {
		log.Warn().Err(err).Msg("[chat] history refresh failed")
		return
	}
	if c.Conversation.Replace(epoch, msgs) {
		if err := c.cache.SaveMessages(partnerID, msgs); err != nil {
			log.Warn().Err(err).Msg("[chat] failed to cache messages")
		}
	}
}

// SendText sends a text message to the active partner, applying the
// unified error policy.
func (c *Client) SendText(ctx context.Context, text string, replyTo *models.Message) error {
	_, err := c.Composer.SendText(ctx, text, replyTo)
	if err != nil {
		c.report(err)
	}
	return err
}

// UpdateProfile changes the user's display name and avatar on the
// backend. The session identity stays as decoded from the token; the
// new name shows up once the token is reissued.
func (c *Client) UpdateProfile(ctx context.Context, name, picture string) error {
	return c.rest.UpdateProfile(ctx, models.ProfileUpdateBody{
		UserID:  c.self.UserID,
		Name:    name,
		Picture: picture,
	})
}

// Logout clears the persisted token, wipes the session cache and tears
// the connection down.
func (c *Client) Logout() error {
	if err := c.tokens.Clear(); err != nil {
		return err
	}
	if err := c.cache.Wipe(); err != nil {
		log.Warn().Err(err).Msg("[chat] failed to wipe session cache")
	}
	c.Conversation.Clear()
	return c.Close()
}

// Close shuts the client down without touching persisted state.
func (c *Client) Close() error {
	err := c.conn.Close()
	if cerr := c.cache.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
