// Package devserver is a local stub of the chat backend: the REST
// endpoints and realtime events the client consumes, backed by
// in-memory state. It exists for development and integration tests, not
// production use.
package devserver

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adi-253/Chatline/client/internal/models"
)

// Store holds the stub backend's in-memory state.
type Store struct {
	mu       sync.RWMutex
	friends  map[string][]models.Friend
	messages map[string][]models.Message
	requests []models.FriendRequest
	profiles map[string]models.ProfileUpdateBody
	files    []models.FileMetadata
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		friends:  make(map[string][]models.Friend),
		messages: make(map[string][]models.Message),
		profiles: make(map[string]models.ProfileUpdateBody),
	}
}

// SeedFriendship links two users both ways. Used by tests and by invite
// acceptance.
func (s *Store) SeedFriendship(a, b models.Friend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addFriendLocked(a.UserID, b)
	s.addFriendLocked(b.UserID, a)
}

func (s *Store) addFriendLocked(ownerID string, friend models.Friend) {
	for _, f := range s.friends[ownerID] {
		if f.UserID == friend.UserID {
			return
		}
	}
	s.friends[ownerID] = append(s.friends[ownerID], friend)
}

// Friends lists a user's friends.
func (s *Store) Friends(userID string) []models.Friend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Friend, len(s.friends[userID]))
	copy(out, s.friends[userID])
	return out
}

// AppendMessage stores a message, assigning it an ID and a server-side
// timestamp when the client supplied none.
func (s *Store) AppendMessage(msg models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = uuid.New().String()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	key := pairKey(msg.Sender, msg.Receiver)
	s.messages[key] = append(s.messages[key], msg)
	return msg
}

// Messages lists the history between two users, oldest first.
func (s *Store) Messages(a, b string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[pairKey(a, b)]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// LastMessages returns the most recent message of every conversation
// the user participates in.
func (s *Store) LastMessages(userID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Message
	for _, msgs := range s.messages {
		if len(msgs) == 0 {
			continue
		}
		last := msgs[len(msgs)-1]
		if last.Sender == userID || last.Receiver == userID {
			out = append(out, last)
		}
	}
	return out
}

// AddRequest records a pending friend request. Returns an error when an
// identical pending request already exists.
func (s *Store) AddRequest(req models.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.FromUserID == req.FromUserID && r.ToUserID == req.ToUserID && r.Status == models.RequestPending {
			return fmt.Errorf("request from %s to %s already pending", req.FromUserID, req.ToUserID)
		}
	}
	req.Status = models.RequestPending
	s.requests = append(s.requests, req)
	return nil
}

// HasDeclined reports whether a previous request from one user to
// another was declined.
func (s *Store) HasDeclined(fromID, toID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.FromUserID == fromID && r.ToUserID == toID && r.Status == models.RequestDeclined {
			return true
		}
	}
	return false
}

// Requests lists a user's received and sent friend requests.
func (s *Store) Requests(userID string) models.RequestsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var resp models.RequestsResponse
	for _, r := range s.requests {
		if r.ToUserID == userID {
			resp.Received = append(resp.Received, r)
		}
		if r.FromUserID == userID {
			resp.Sent = append(resp.Sent, r)
		}
	}
	return resp
}

// Respond resolves a pending request. Accepting also links the two
// users as friends. Requests are mutated in place, never deleted.
func (s *Store) Respond(userID, senderID, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.FromUserID == senderID && r.ToUserID == userID && r.Status == models.RequestPending {
			switch action {
			case "accept":
				s.requests[i].Status = models.RequestAccepted
				s.addFriendLocked(userID, models.Friend{UserID: senderID, Name: r.FromName})
				s.addFriendLocked(senderID, models.Friend{UserID: userID})
			case "decline":
				s.requests[i].Status = models.RequestDeclined
			default:
				return fmt.Errorf("unknown action %q", action)
			}
			return nil
		}
	}
	return fmt.Errorf("no pending request from %s to %s", senderID, userID)
}

// UpdateProfile stores a profile update.
func (s *Store) UpdateProfile(update models.ProfileUpdateBody) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[update.UserID] = update
}

// SaveFile records uploaded-file metadata.
func (s *Store) SaveFile(meta models.FileMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, meta)
}

// pairKey builds an order-independent key for a conversation pair.
func pairKey(a, b string) string {
	if sort.StringsAreSorted([]string{a, b}) {
		return a + "|" + b
	}
	return b + "|" + a
}
