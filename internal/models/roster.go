package models

// Identity describes the signed-in user.
// It is derived once from the decoded auth token at session start and
// is immutable for the lifetime of the session.
type Identity struct {
	// UserID is the unique account identifier
	UserID string `json:"userID"`

	// Name is the display name
	Name string `json:"name"`

	// Email is the account email, display only
	Email string `json:"email,omitempty"`

	// Picture is the avatar URL, display only
	Picture string `json:"picture,omitempty"`
}

// Friend is an accepted connection in the roster.
type Friend struct {
	// UserID is the friend's account identifier
	UserID string `json:"userID"`

	// Name is the friend's display name
	Name string `json:"name"`

	// Picture is the friend's avatar URL
	Picture string `json:"picture,omitempty"`
}

// PresenceEntry is one user currently online.
// UserID is unique within the online set.
type PresenceEntry struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
}

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	// RequestPending means the request was sent and not yet answered
	RequestPending RequestStatus = "pending"

	// RequestAccepted means the recipient accepted
	RequestAccepted RequestStatus = "accepted"

	// RequestDeclined means the recipient declined
	RequestDeclined RequestStatus = "declined"
)

// FriendRequest represents a connection request between two users.
// Created on send, mutated on accept/decline, never deleted.
type FriendRequest struct {
	// FromUserID is the sender's account identifier
	FromUserID string `json:"fromUserID"`

	// FromName is the sender's display name at send time
	FromName string `json:"fromName"`

	// ToUserID is the recipient's account identifier
	ToUserID string `json:"toUserID"`

	// Picture is the sender's avatar URL, if known
	Picture string `json:"picture,omitempty"`

	// Status is the current request state
	Status RequestStatus `json:"status"`
}

// RequestsResponse is the response for listing a user's friend requests.
type RequestsResponse struct {
	Received []FriendRequest `json:"received"`
	Sent     []FriendRequest `json:"sent"`
}

// RespondRequestBody is the request body for answering a friend request.
type RespondRequestBody struct {
	UserID   string `json:"userID"`
	SenderID string `json:"senderID"`
	Action   string `json:"action"` // "accept" or "decline"
}

// ProfileUpdateBody is the request body for updating the profile.
type ProfileUpdateBody struct {
	UserID  string `json:"userID"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// FileMetadata is the generic file-metadata record saved after an
// object-storage upload succeeds.
type FileMetadata struct {
	// URL is where the uploaded object can be fetched
	URL string `json:"url"`

	// ResourceType classifies the object (image, video, pdf)
	ResourceType string `json:"resource_type"`

	// FileName is the original (sanitized) file name
	FileName string `json:"file_name"`

	// CreatedAt is the provider-reported creation time, RFC 3339
	CreatedAt string `json:"created_at"`
}
