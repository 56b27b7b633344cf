// Package store holds the client's derived, mutable view state: the
// roster (friends, presence, previews) and the single active
// conversation. It is not a source of truth; everything here is rebuilt
// from the backend on each session.
package store

import (
	"sync"

	"github.com/adi-253/Chatline/client/internal/models"
)

// RosterStore holds the friend list, the online set and the
// last-message preview per friend.
type RosterStore struct {
	mu       sync.RWMutex
	friends  []models.Friend
	online   map[string]models.PresenceEntry
	previews map[string]models.Message
}

// NewRosterStore creates an empty roster.
func NewRosterStore() *RosterStore {
	return &RosterStore{
		online:   make(map[string]models.PresenceEntry),
		previews: make(map[string]models.Message),
	}
}

// SetFriends replaces the friend list with the roster snapshot from the
// backend.
func (s *RosterStore) SetFriends(friends []models.Friend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = make([]models.Friend, len(friends))
	copy(s.friends, friends)
}

// AddFriend appends a friend if not already present. Used when an
// invite is accepted mid-session.
func (s *RosterStore) AddFriend(friend models.Friend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.friends {
		if f.UserID == friend.UserID {
			return
		}
	}
	s.friends = append(s.friends, friend)
}

// Friends returns a copy of the friend list.
func (s *RosterStore) Friends() []models.Friend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Friend, len(s.friends))
	copy(out, s.friends)
	return out
}

// SetOnline inserts a user into the online set. Set semantics: adding
// an already-online user is a no-op.
func (s *RosterStore) SetOnline(entry models.PresenceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[entry.UserID] = entry
}

// SetOffline removes a user from the online set. No-op if absent.
func (s *RosterStore) SetOffline(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.online, userID)
}

// ReplaceOnline replaces the entire online set atomically with a
// presence snapshot.
func (s *RosterStore) ReplaceOnline(entries []models.PresenceEntry) {
	online := make(map[string]models.PresenceEntry, len(entries))
	for _, e := range entries {
		online[e.UserID] = e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// IsOnline reports whether a user is in the online set.
func (s *RosterStore) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[userID]
	return ok
}

// OnlineCount returns the size of the online set.
func (s *RosterStore) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.online)
}

// SetPreview records the last message for a friend so the roster view
// stays consistent without a full reload.
func (s *RosterStore) SetPreview(friendID string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews[friendID] = msg
}

// Preview returns the last message for a friend, if any.
func (s *RosterStore) Preview(friendID string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.previews[friendID]
	return msg, ok
}

// ApplyLastMessages folds the backend's last-message-per-conversation
// listing into the preview map, keyed by the counterpart of each
// message relative to selfID.
func (s *RosterStore) ApplyLastMessages(selfID string, msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		friendID := msg.Sender
		if msg.Sender == selfID {
			friendID = msg.Receiver
		}
		s.previews[friendID] = msg
	}
}
