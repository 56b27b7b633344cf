package chat

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/composer"
	"github.com/adi-253/Chatline/client/internal/invite"
	"github.com/adi-253/Chatline/client/internal/session"
	"github.com/adi-253/Chatline/client/internal/storage"
)

// Severity decides how an error is handled. The policy is applied
// uniformly across every send and fetch path instead of each call site
// making its own choice.
type Severity int

const (
	// SeverityRecoverable errors are logged and the operation carries on
	// or silently retries; the user is not interrupted.
	SeverityRecoverable Severity = iota

	// SeveritySurfaced errors are shown to the user as an alert.
	SeveritySurfaced

	// SeverityFatal errors deny the session outright; Connect refuses
	// to bootstrap and the caller lands back at sign-in.
	SeverityFatal
)

// Notifier surfaces user-facing alerts. The terminal front end prints
// them; tests capture them.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// Classify maps an error onto the handling policy.
func Classify(err error) Severity {
	switch {
	case errors.Is(err, session.ErrNoToken):
		return SeverityFatal
	case errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, composer.ErrEmptyMessage),
		errors.Is(err, composer.ErrNoActivePartner),
		errors.Is(err, composer.ErrAlreadyRecording),
		errors.Is(err, composer.ErrNotRecording),
		errors.Is(err, invite.ErrSelfInvite),
		errors.Is(err, invite.ErrAlreadyPending),
		errors.Is(err, invite.ErrAlreadyFriends),
		errors.Is(err, invite.ErrResendNeedsConfirmation),
		errors.Is(err, invite.ErrNoRequest):
		return SeveritySurfaced
	default:
		return SeverityRecoverable
	}
}

// report applies the error policy: log, surface or escalate.
// Returns true when the error classifies as fatal. The fatal class is
// rejected at Connect before a session exists, so in-session callers
// only observe the surfaced and recoverable outcomes.
func (c *Client) report(err error) bool {
	if err == nil {
		return false
	}
	switch Classify(err) {
	case SeverityFatal:
		log.Error().Err(err).Msg("[chat] fatal session error")
		return true
	case SeveritySurfaced:
		if c.notifier != nil {
			c.notifier.Notify(err.Error())
		}
		log.Warn().Err(err).Msg("[chat] surfaced to user")
	default:
		log.Warn().Err(err).Msg("[chat] recoverable error")
	}
	return false
}
