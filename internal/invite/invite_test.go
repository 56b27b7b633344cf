package invite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/realtime"
)

type fakeEmitter struct {
	err    error
	events []string
}

func (f *fakeEmitter) Emit(event string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeResponder struct {
	respondErr error
	responded  []string
	requests   models.RequestsResponse
}

func (f *fakeResponder) RespondRequest(ctx context.Context, userID, senderID, action string) error {
	if f.respondErr != nil {
		return f.respondErr
	}
	f.responded = append(f.responded, senderID+":"+action)
	return nil
}

func (f *fakeResponder) Requests(ctx context.Context, userID string) (*models.RequestsResponse, error) {
	resp := f.requests
	return &resp, nil
}

func newTestFlow() (*Flow, *fakeEmitter, *fakeResponder) {
	conn := &fakeEmitter{}
	rest := &fakeResponder{}
	return NewFlow(models.Identity{UserID: "u1", Name: "Ada"}, conn, rest), conn, rest
}

func TestSendRejectsSelfAndEmpty(t *testing.T) {
	f, conn, _ := newTestFlow()

	assert.ErrorIs(t, f.Send("u1"), ErrSelfInvite)
	assert.ErrorIs(t, f.Send(""), ErrSelfInvite)
	assert.Empty(t, conn.events)
}

func TestSendMovesToRequestSent(t *testing.T) {
	f, conn, _ := newTestFlow()

	require.NoError(t, f.Send("u2"))
	assert.Equal(t, StateRequestSent, f.State("u2"))
	assert.Equal(t, []string{realtime.EventSendInvite}, conn.events)

	// A second send while pending is rejected.
	assert.ErrorIs(t, f.Send("u2"), ErrAlreadyPending)
}

func TestSendAfterAcceptRejected(t *testing.T) {
	f, _, _ := newTestFlow()

	require.NoError(t, f.Send("u2"))
	f.HandleInviteResult(realtime.InviteResultPayload{From: "u2", Accepted: true})

	assert.Equal(t, StateAccepted, f.State("u2"))
	assert.ErrorIs(t, f.Send("u2"), ErrAlreadyFriends)
}

func TestDeclinedInviteNeedsResendConfirmation(t *testing.T) {
	f, conn, _ := newTestFlow()

	require.NoError(t, f.Send("u2"))
	f.HandleInviteResult(realtime.InviteResultPayload{From: "u2", Accepted: false})
	assert.Equal(t, StateDeclined, f.State("u2"))

	// Plain send is blocked until the user confirms.
	assert.ErrorIs(t, f.Send("u2"), ErrResendNeedsConfirmation)

	require.NoError(t, f.ConfirmResend("u2"))
	assert.Equal(t, StateRequestSent, f.State("u2"))
	assert.Equal(t, []string{realtime.EventSendInvite, realtime.EventConfirmResendInvite}, conn.events)
}

func TestConfirmResendRequiresDeclinedState(t *testing.T) {
	f, _, _ := newTestFlow()
	assert.Error(t, f.ConfirmResend("u2"))
}

func TestAcceptPersistsThenNotifies(t *testing.T) {
	f, conn, rest := newTestFlow()

	f.HandleInviteReceived(realtime.InvitePayload{From: "u9", FromName: "Nia", To: "u1"})
	assert.Equal(t, StateRequestReceived, f.State("u9"))
	assert.Equal(t, "Nia", f.Name("u9"))

	require.NoError(t, f.Accept(context.Background(), "u9"))
	assert.Equal(t, StateAccepted, f.State("u9"))
	assert.Equal(t, []string{"u9:accept"}, rest.responded)
	assert.Equal(t, []string{realtime.EventInviteResponse}, conn.events)
}

func TestDecline(t *testing.T) {
	f, _, rest := newTestFlow()

	f.HandleInviteReceived(realtime.InvitePayload{From: "u9", FromName: "Nia", To: "u1"})
	require.NoError(t, f.Decline(context.Background(), "u9"))

	assert.Equal(t, StateDeclined, f.State("u9"))
	assert.Equal(t, []string{"u9:decline"}, rest.responded)
}

func TestRespondWithoutRequest(t *testing.T) {
	f, _, _ := newTestFlow()
	assert.ErrorIs(t, f.Accept(context.Background(), "u9"), ErrNoRequest)
	assert.ErrorIs(t, f.Decline(context.Background(), "u9"), ErrNoRequest)
}

func TestAcceptKeepsStateWhenPersistFails(t *testing.T) {
	f, _, rest := newTestFlow()
	rest.respondErr = errors.New("backend down")

	f.HandleInviteReceived(realtime.InvitePayload{From: "u9", To: "u1"})
	assert.Error(t, f.Accept(context.Background(), "u9"))
	assert.Equal(t, StateRequestReceived, f.State("u9"), "state unchanged until persisted")
}

func TestLoadFoldsRequestListing(t *testing.T) {
	f, _, rest := newTestFlow()
	rest.requests = models.RequestsResponse{
		Received: []models.FriendRequest{
			{FromUserID: "u5", FromName: "Eve", ToUserID: "u1", Status: models.RequestPending},
			{FromUserID: "u6", ToUserID: "u1", Status: models.RequestAccepted},
		},
		Sent: []models.FriendRequest{
			{FromUserID: "u1", ToUserID: "u7", Status: models.RequestPending},
			{FromUserID: "u1", ToUserID: "u8", Status: models.RequestDeclined},
		},
	}

	require.NoError(t, f.Load(context.Background()))

	assert.Equal(t, StateRequestReceived, f.State("u5"))
	assert.Equal(t, "Eve", f.Name("u5"))
	assert.Equal(t, StateAccepted, f.State("u6"))
	assert.Equal(t, StateRequestSent, f.State("u7"))
	assert.Equal(t, StateDeclined, f.State("u8"))
	assert.Equal(t, StateNone, f.State("stranger"))
}
