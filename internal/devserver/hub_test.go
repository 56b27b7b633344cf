package devserver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/Chatline/client/internal/realtime"
)

// drainEvents decodes every frame queued on a client's send channel.
func drainEvents(t *testing.T, cl *client) []realtime.Envelope {
	t.Helper()
	var out []realtime.Envelope
	for {
		select {
		case frame := <-cl.send:
			var env realtime.Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

// lastPresenceEvent returns the most recent presence event for a user.
func lastPresenceEvent(t *testing.T, envs []realtime.Envelope, userID string) string {
	t.Helper()
	last := ""
	for _, env := range envs {
		if env.Event != realtime.EventUserOnline && env.Event != realtime.EventUserOffline {
			continue
		}
		var p realtime.PresencePayload
		require.NoError(t, json.Unmarshal(env.Data, &p))
		if p.UserID == userID {
			last = env.Event
		}
	}
	return last
}

func TestReconnectDoesNotAnnounceOffline(t *testing.T) {
	hub := NewHub(NewStore())

	observer := newClient(hub, nil, "u2", "Bea")
	hub.register(observer)

	old := newClient(hub, nil, "u1", "Ada")
	hub.register(old)
	replacement := newClient(hub, nil, "u1", "Ada")
	hub.register(replacement)

	// The dying read pump of the replaced connection unregisters after
	// the replacement is already in place.
	hub.unregister(old)

	hub.mu.RLock()
	assert.Same(t, replacement, hub.clients["u1"], "replacement stays registered")
	hub.mu.RUnlock()

	events := drainEvents(t, observer)
	assert.Equal(t, realtime.EventUserOnline, lastPresenceEvent(t, events, "u1"),
		"peers must still see the user online after a reconnect")
}

func TestUnregisterCurrentConnectionAnnouncesOffline(t *testing.T) {
	hub := NewHub(NewStore())

	observer := newClient(hub, nil, "u2", "Bea")
	hub.register(observer)
	ada := newClient(hub, nil, "u1", "Ada")
	hub.register(ada)

	hub.unregister(ada)

	hub.mu.RLock()
	_, stillThere := hub.clients["u1"]
	hub.mu.RUnlock()
	assert.False(t, stillThere)

	events := drainEvents(t, observer)
	assert.Equal(t, realtime.EventUserOffline, lastPresenceEvent(t, events, "u1"))
}
