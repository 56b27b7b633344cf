package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/Chatline/client/internal/models"
)

func openTestCache(t *testing.T) *Session {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestActiveFriendRoundTrip(t *testing.T) {
	s := openTestCache(t)

	_, ok := s.ActiveFriend()
	assert.False(t, ok)

	friend := models.Friend{UserID: "u2", Name: "Bea"}
	require.NoError(t, s.SaveActiveFriend(friend))

	got, ok := s.ActiveFriend()
	require.True(t, ok)
	assert.Equal(t, friend, got)
}

func TestMessagesRoundTrip(t *testing.T) {
	s := openTestCache(t)

	msgs := []models.Message{
		{ID: "m1", Sender: "u2", Receiver: "u1", Text: "hi", Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: "m2", Sender: "u1", Receiver: "u2", Text: "hello"},
	}
	require.NoError(t, s.SaveMessages("u2", msgs))

	got, ok := s.Messages("u2")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "hi", got[0].Text)
	assert.True(t, msgs[0].Timestamp.Equal(got[0].Timestamp))
	assert.Equal(t, "m2", got[1].ID)

	// Other partners stay empty.
	_, ok = s.Messages("u3")
	assert.False(t, ok)
}

func TestWipe(t *testing.T) {
	s := openTestCache(t)

	require.NoError(t, s.SaveActiveFriend(models.Friend{UserID: "u2"}))
	require.NoError(t, s.SaveMessages("u2", []models.Message{{Text: "hi"}}))

	require.NoError(t, s.Wipe())

	_, ok := s.ActiveFriend()
	assert.False(t, ok)
	_, ok = s.Messages("u2")
	assert.False(t, ok)
}

func TestNilSessionIsInert(t *testing.T) {
	var s *Session

	assert.NoError(t, s.SaveActiveFriend(models.Friend{UserID: "u2"}))
	_, ok := s.ActiveFriend()
	assert.False(t, ok)

	assert.NoError(t, s.SaveMessages("u2", nil))
	_, ok = s.Messages("u2")
	assert.False(t, ok)

	assert.NoError(t, s.Wipe())
	assert.NoError(t, s.Close())
}

func TestOpenEmptyDirDisablesCache(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.Nil(t, s)
}
