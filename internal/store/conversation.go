package store

import (
	"sync"

	"github.com/adi-253/Chatline/client/internal/models"
)

// ConversationStore holds the ordered message list of the currently
// active conversation. Exactly one conversation is active at a time;
// switching partners discards the previous list wholesale.
//
// Every switch bumps an epoch token. History fetches carry the epoch
// they were issued under, and results for a superseded epoch are
// discarded, so a slow fetch can never overwrite a fresher
// conversation.
type ConversationStore struct {
	mu          sync.RWMutex
	partnerID   string
	partnerName string
	messages    []models.Message
	epoch       uint64
}

// NewConversationStore creates a store with no active conversation.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// SetPartner switches the active conversation and returns the epoch
// token the caller must present when replacing the history. The message
// list is cleared immediately; draft state is implicitly dropped.
func (s *ConversationStore) SetPartner(userID, name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partnerID = userID
	s.partnerName = name
	s.messages = nil
	s.epoch++
	return s.epoch
}

// Partner returns the active conversation partner.
func (s *ConversationStore) Partner() (userID, name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partnerID, s.partnerName
}

// Active reports whether a conversation partner is selected.
func (s *ConversationStore) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partnerID != ""
}

// Replace swaps in a freshly fetched history, but only if the epoch
// still matches the active conversation. Returns false when the result
// is stale and was discarded.
func (s *ConversationStore) Replace(epoch uint64, msgs []models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.messages = make([]models.Message, len(msgs))
	copy(s.messages, msgs)
	return true
}

// Append adds one message to the active conversation.
func (s *ConversationStore) Append(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// AppendIfFrom appends an inbound message only when its sender is the
// active conversation partner. Returns whether it was appended.
func (s *ConversationStore) AppendIfFrom(from string, msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.partnerID == "" || from != s.partnerID {
		return false
	}
	s.messages = append(s.messages, msg)
	return true
}

// Confirm reconciles a pending message against its server
// acknowledgment, identified by the client correlation ID. Returns
// whether a pending message was found.
func (s *ConversationStore) Confirm(clientID, serverID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ClientID == clientID {
			s.messages[i].ID = serverID
			s.messages[i].Status = models.StatusConfirmed
			return true
		}
	}
	return false
}

// Fail marks a pending message as failed. Returns whether it was found.
func (s *ConversationStore) Fail(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ClientID == clientID {
			s.messages[i].Status = models.StatusFailed
			return true
		}
	}
	return false
}

// Messages returns a copy of the active conversation's message list.
func (s *ConversationStore) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear drops the active conversation entirely. Called on logout.
func (s *ConversationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partnerID = ""
	s.partnerName = ""
	s.messages = nil
	s.epoch++
}
