package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/Chatline/client/internal/models"
)

func TestFriendsCarriesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/auth/friends/u1", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.Friend{{UserID: "u2", Name: "Bea"}})
	}))
	defer srv.Close()

	friends, err := NewClient(srv.URL, "tok-123").Friends(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "u2", friends[0].UserID)
}

func TestMessagesPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/messages/u1/u2", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Message{{Sender: "u2", Receiver: "u1", Text: "hey"}})
	}))
	defer srv.Close()

	msgs, err := NewClient(srv.URL, "tok").Messages(context.Background(), "u1", "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hey", msgs[0].Text)
}

func TestRespondRequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PATCH", r.Method)
		assert.Equal(t, "/api/auth/requests/respond", r.URL.Path)

		var body models.RespondRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.RespondRequestBody{UserID: "u1", SenderID: "u9", Action: "accept"}, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "tok").RespondRequest(context.Background(), "u1", "u9", "accept")
	assert.NoError(t, err)
}

func TestRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/requests/u1", r.URL.Path)
		json.NewEncoder(w).Encode(models.RequestsResponse{
			Received: []models.FriendRequest{{FromUserID: "u9", ToUserID: "u1", Status: models.RequestPending}},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "tok").Requests(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, resp.Received, 1)
	assert.Equal(t, "u9", resp.Received[0].FromUserID)
	assert.Empty(t, resp.Sent)
}

func TestSaveFileMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/auth/files", r.URL.Path)

		var meta models.FileMetadata
		require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
		assert.Equal(t, "https://cdn.example/x.pdf", meta.URL)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "tok").SaveFileMetadata(context.Background(), models.FileMetadata{
		URL: "https://cdn.example/x.pdf",
	})
	assert.NoError(t, err)
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok").Friends(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "no such user")
}
