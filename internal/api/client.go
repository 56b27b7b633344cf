// Package api is the REST client for the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adi-253/Chatline/client/internal/models"
)

// Client is a thin wrapper around the backend's REST API.
// The auth token travels as a bearer header on every request.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a REST client for the given origin.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// doRequest executes an HTTP request against the backend.
// It adds authentication headers and decodes error responses.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	reqURL := fmt.Sprintf("%s%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("backend error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Friends lists the user's accepted connections.
func (c *Client) Friends(ctx context.Context, userID string) ([]models.Friend, error) {
	respBody, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/auth/friends/%s", url.PathEscape(userID)), nil)
	if err != nil {
		return nil, err
	}

	var friends []models.Friend
	if err := json.Unmarshal(respBody, &friends); err != nil {
		return nil, fmt.Errorf("failed to parse friends: %w", err)
	}
	return friends, nil
}

// LastMessages lists the most recent message per conversation the user
// participates in, for roster previews.
func (c *Client) LastMessages(ctx context.Context, userID string) ([]models.Message, error) {
	respBody, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/auth/last-messages/%s", url.PathEscape(userID)), nil)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := json.Unmarshal(respBody, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse last messages: %w", err)
	}
	return msgs, nil
}

// Messages lists the historical messages between two users, oldest first.
func (c *Client) Messages(ctx context.Context, selfID, partnerID string) ([]models.Message, error) {
	endpoint := fmt.Sprintf("/api/auth/messages/%s/%s", url.PathEscape(selfID), url.PathEscape(partnerID))
	respBody, err := c.doRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := json.Unmarshal(respBody, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	return msgs, nil
}

// Requests lists the user's received and sent friend requests.
func (c *Client) Requests(ctx context.Context, userID string) (*models.RequestsResponse, error) {
	respBody, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/auth/requests/%s", url.PathEscape(userID)), nil)
	if err != nil {
		return nil, err
	}

	var requests models.RequestsResponse
	if err := json.Unmarshal(respBody, &requests); err != nil {
		return nil, fmt.Errorf("failed to parse requests: %w", err)
	}
	return &requests, nil
}

// RespondRequest persists an accept or decline of a friend request.
func (c *Client) RespondRequest(ctx context.Context, userID, senderID, action string) error {
	body := models.RespondRequestBody{
		UserID:   userID,
		SenderID: senderID,
		Action:   action,
	}
	_, err := c.doRequest(ctx, "PATCH", "/api/auth/requests/respond", body)
	return err
}

// UpdateProfile updates the user's display name and avatar.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdateBody) error {
	_, err := c.doRequest(ctx, "PATCH", "/api/auth/profile", update)
	return err
}

// SaveFileMetadata records an object-storage upload with the backend.
func (c *Client) SaveFileMetadata(ctx context.Context, meta models.FileMetadata) error {
	_, err := c.doRequest(ctx, "POST", "/api/auth/files", meta)
	return err
}
