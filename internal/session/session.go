// Package session bootstraps the client's identity from the persisted
// auth token. The token is decoded locally for display fields only; no
// signature verification happens client-side, trust is deferred to the
// backend on every call that carries the token.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
)

// ErrNoToken is returned when no auth token has been persisted yet.
// The caller treats this as unauthenticated and stops.
var ErrNoToken = errors.New("no auth token found")

// Store persists the auth token in durable local storage.
type Store struct {
	path string
}

// NewStore creates a token store rooted at the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the token to disk, creating parent directories as needed.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Load reads the persisted token. Returns ErrNoToken if absent.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Clear removes the persisted token. Called on logout.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// Bootstrap loads the persisted token and decodes the identity from it.
// A missing token yields ErrNoToken; a malformed token is logged and
// reported as an error so the caller can treat the session as
// unauthenticated.
func Bootstrap(store *Store) (*models.Identity, string, error) {
	token, err := store.Load()
	if err != nil {
		return nil, "", err
	}

	identity, err := DecodeIdentity(token)
	if err != nil {
		log.Error().Err(err).Msg("[session] token decode failed")
		return nil, "", err
	}

	log.Info().Msgf("[session] signed in as %s (%s)", identity.Name, identity.UserID)
	return identity, token, nil
}

// DecodeIdentity decodes the JWT claims without verifying the signature
// and maps them onto an Identity.
func DecodeIdentity(token string) (*models.Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	identity := &models.Identity{
		UserID:  claimString(claims, "userID"),
		Name:    claimString(claims, "name"),
		Email:   claimString(claims, "email"),
		Picture: claimString(claims, "picture"),
	}
	if identity.UserID == "" {
		return nil, errors.New("token carries no userID claim")
	}
	return identity, nil
}

// claimString reads a string claim, tolerating absent or non-string values.
func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
