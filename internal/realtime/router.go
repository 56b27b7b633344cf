package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler processes the payload of one inbound event.
// Handlers run sequentially on the connection's read loop, so store
// mutations they perform never race each other.
type Handler func(data json.RawMessage)

// Router is the single dispatch point translating inbound realtime
// events into handler calls. Registration is replace-not-stack: binding
// an event that already has a handler swaps the old one out, which
// keeps re-initialization idempotent when the owning view rebinds.
type Router struct {
	mu       sync.Mutex
	handlers map[string]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// On registers the handler for an event, replacing any previous one.
func (r *Router) On(event string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = h
}

// Off removes the handler for an event. No-op if none is registered.
func (r *Router) Off(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, event)
}

// Reset deregisters every handler. Called on connection teardown.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string]Handler)
}

// Dispatch routes one envelope to its handler. Unrecognized events are
// logged and dropped.
func (r *Router) Dispatch(env Envelope) {
	r.mu.Lock()
	h := r.handlers[env.Event]
	r.mu.Unlock()

	if h == nil {
		log.Debug().Msgf("[realtime] no handler for event %q, dropping", env.Event)
		return
	}
	h(env.Data)
}
