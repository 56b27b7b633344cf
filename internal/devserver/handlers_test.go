package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/realtime"
)

func startStub(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store := NewStore()
	hub := NewHub(store)
	srv := httptest.NewServer(Handler(hub, store, nil))
	t.Cleanup(srv.Close)
	return srv, store
}

func wsURL(srv *httptest.Server, userID, name string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket?userID=" + userID + "&name=" + name
}

func dialStub(t *testing.T, srv *httptest.Server, userID, name string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, userID, name), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env realtime.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHealth(t *testing.T) {
	srv, _ := startStub(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFriendsEndpoint(t *testing.T) {
	srv, store := startStub(t)
	store.SeedFriendship(models.Friend{UserID: "u1", Name: "Ada"}, models.Friend{UserID: "u2", Name: "Bea"})

	resp, err := http.Get(srv.URL + "/api/auth/friends/u1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var friends []models.Friend
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&friends))
	require.Len(t, friends, 1)
	assert.Equal(t, "u2", friends[0].UserID)
}

func TestFriendsEndpointEmptyList(t *testing.T) {
	srv, _ := startStub(t)

	resp, err := http.Get(srv.URL + "/api/auth/friends/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()

	var friends []models.Friend
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&friends))
	assert.Empty(t, friends)
}

func TestRespondEndpointValidation(t *testing.T) {
	srv, _ := startStub(t)

	req, err := http.NewRequest("PATCH", srv.URL+"/api/auth/requests/respond", bytes.NewBufferString("not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocketRequiresUserID(t *testing.T) {
	srv, _ := startStub(t)
	resp, err := http.Get(srv.URL + "/socket")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocketPresenceAndMessageRoundTrip(t *testing.T) {
	srv, store := startStub(t)
	store.SeedFriendship(models.Friend{UserID: "u1", Name: "Ada"}, models.Friend{UserID: "u2", Name: "Bea"})

	alice := dialStub(t, srv, "u1", "Ada")

	// The newcomer gets a presence snapshot of everyone online.
	env := readEnvelope(t, alice)
	require.Equal(t, realtime.EventOnlineSnapshot, env.Event)
	var snapshot []models.PresenceEntry
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, "u1", snapshot[0].UserID)

	bea := dialStub(t, srv, "u2", "Bea")
	env = readEnvelope(t, bea)
	require.Equal(t, realtime.EventOnlineSnapshot, env.Event)

	// Existing users learn about the newcomer incrementally.
	env = readEnvelope(t, alice)
	require.Equal(t, realtime.EventUserOnline, env.Event)
	var presence realtime.PresencePayload
	require.NoError(t, json.Unmarshal(env.Data, &presence))
	assert.Equal(t, "u2", presence.UserID)

	// Alice sends a message; she gets an ack, Bea gets the stored copy.
	payload, err := json.Marshal(models.Message{ClientID: "c1", Receiver: "u2", Text: "hi"})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(realtime.Envelope{Event: realtime.EventSendMessage, Data: payload}))

	env = readEnvelope(t, alice)
	require.Equal(t, realtime.EventAck, env.Event)
	assert.Equal(t, "c1", env.AckID)
	var ack realtime.AckPayload
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	assert.Equal(t, "c1", ack.ClientID)
	assert.NotEmpty(t, ack.ID)

	env = readEnvelope(t, bea)
	require.Equal(t, realtime.EventReceiveMessage, env.Event)
	var got models.Message
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, "u1", got.Sender)
	assert.Equal(t, ack.ID, got.ID)

	// The message is persisted for the history endpoint.
	require.Len(t, store.Messages("u1", "u2"), 1)
}

func TestSocketInviteHandshake(t *testing.T) {
	srv, store := startStub(t)

	alice := dialStub(t, srv, "u1", "Ada")
	readEnvelope(t, alice) // snapshot
	bea := dialStub(t, srv, "u2", "Bea")
	readEnvelope(t, bea)   // snapshot
	readEnvelope(t, alice) // user-online for u2

	payload, err := json.Marshal(realtime.InvitePayload{To: "u2"})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(realtime.Envelope{Event: realtime.EventSendInvite, Data: payload}))

	env := readEnvelope(t, bea)
	require.Equal(t, realtime.EventInviteReceived, env.Event)
	var invite realtime.InvitePayload
	require.NoError(t, json.Unmarshal(env.Data, &invite))
	assert.Equal(t, "u1", invite.From)
	assert.Equal(t, "Ada", invite.FromName)

	// Bea accepts: REST persists, the socket relays the result.
	require.NoError(t, store.Respond("u2", "u1", "accept"))
	respPayload, err := json.Marshal(realtime.InviteResponsePayload{To: "u1", From: "u2", Accepted: true})
	require.NoError(t, err)
	require.NoError(t, bea.WriteJSON(realtime.Envelope{Event: realtime.EventInviteResponse, Data: respPayload}))

	env = readEnvelope(t, alice)
	require.Equal(t, realtime.EventInviteResult, env.Event)
	var result realtime.InviteResultPayload
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "u2", result.From)
	assert.True(t, result.Accepted)
}

func TestSocketInviteToOfflineUser(t *testing.T) {
	srv, _ := startStub(t)

	alice := dialStub(t, srv, "u1", "Ada")
	readEnvelope(t, alice) // snapshot

	payload, err := json.Marshal(realtime.InvitePayload{To: "ghost"})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(realtime.Envelope{Event: realtime.EventSendInvite, Data: payload}))

	env := readEnvelope(t, alice)
	require.Equal(t, realtime.EventInviteFeedback, env.Event)
	var feedback realtime.InviteFeedbackPayload
	require.NoError(t, json.Unmarshal(env.Data, &feedback))
	assert.Equal(t, "offline", feedback.Code)
	assert.Equal(t, "ghost", feedback.To)
}

func TestSocketInviteAfterDeclineNeedsConfirm(t *testing.T) {
	srv, store := startStub(t)
	require.NoError(t, store.AddRequest(models.FriendRequest{FromUserID: "u1", ToUserID: "u2"}))
	require.NoError(t, store.Respond("u2", "u1", "decline"))

	alice := dialStub(t, srv, "u1", "Ada")
	readEnvelope(t, alice) // snapshot

	payload, err := json.Marshal(realtime.InvitePayload{To: "u2"})
	require.NoError(t, err)
	require.NoError(t, alice.WriteJSON(realtime.Envelope{Event: realtime.EventSendInvite, Data: payload}))

	env := readEnvelope(t, alice)
	require.Equal(t, realtime.EventInviteFeedback, env.Event)
	var feedback realtime.InviteFeedbackPayload
	require.NoError(t, json.Unmarshal(env.Data, &feedback))
	assert.Equal(t, "declined-before", feedback.Code)

	// The confirm-resend event bypasses the guard.
	require.NoError(t, alice.WriteJSON(realtime.Envelope{Event: realtime.EventConfirmResendInvite, Data: payload}))
	assert.Eventually(t, func() bool {
		return len(store.Requests("u2").Received) == 2
	}, 2*time.Second, 20*time.Millisecond)
}
