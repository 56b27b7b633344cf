// Package cache is the short-lived session cache: the active partner
// and the last-fetched message list per partner, persisted in a
// PebbleDB store so a restarted client can restore its view before the
// fresh fetch lands. It is best-effort state, wiped on logout.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"

	"github.com/adi-253/Chatline/client/internal/models"
)

const activeFriendKey = "active-friend"

// Session is a best-effort key-value cache for session-scoped view
// state. All methods tolerate a nil receiver so callers can run without
// a cache at all.
type Session struct {
	db  *pebble.DB
	dir string
	mu  sync.Mutex
}

// Open opens (or creates) the session cache at dir.
func Open(dir string) (*Session, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Session{db: db, dir: dir}, nil
}

// SaveActiveFriend remembers the selected conversation partner.
func (s *Session) SaveActiveFriend(friend models.Friend) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, err := json.Marshal(friend)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(activeFriendKey), val, pebble.Sync)
}

// ActiveFriend returns the remembered conversation partner, if any.
func (s *Session) ActiveFriend() (models.Friend, bool) {
	var friend models.Friend
	if s == nil || s.db == nil {
		return friend, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, closer, err := s.db.Get([]byte(activeFriendKey))
	if err != nil {
		return friend, false
	}
	defer closer.Close()
	if err := json.Unmarshal(val, &friend); err != nil {
		return friend, false
	}
	return friend, true
}

// SaveMessages caches the fetched history for a partner.
func (s *Session) SaveMessages(partnerID string, msgs []models.Message) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.db.Set(messagesKey(partnerID), val, pebble.Sync)
}

// Messages returns the cached history for a partner, if any.
func (s *Session) Messages(partnerID string) ([]models.Message, bool) {
	if s == nil || s.db == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, closer, err := s.db.Get(messagesKey(partnerID))
	if err != nil {
		return nil, false
	}
	defer closer.Close()
	var msgs []models.Message
	if err := json.Unmarshal(val, &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

// Wipe deletes everything in the cache. Called on logout.
func (s *Session) Wipe() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.db.NewIter(nil)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	for it.First(); it.Valid(); it.Next() {
		key := make([]byte, len(it.Key()))
		copy(key, it.Key())
		if err := batch.Delete(key, nil); err != nil {
			it.Close()
			batch.Close()
			return err
		}
	}
	if err := it.Close(); err != nil {
		batch.Close()
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Close closes the underlying store.
func (s *Session) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func messagesKey(partnerID string) []byte {
	return []byte("messages/" + partnerID)
}
