// Package workflows holds intent routing and the human escalation path.
package workflows

import (
	"fmt"
	"sort"
	"sync"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/intents"
)

// Router maps intent names to handlers. Safe for concurrent use; it is
// registered once at startup and then read by every conversation.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]intents.Handler
}

func NewRouter(handlers ...intents.Handler) *Router {
	r := &Router{handlers: make(map[string]intents.Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register adds h under h.Name(), replacing any handler already there.
func (r *Router) Register(h intents.Handler) {
	r.mu.Lock()
	r.handlers[h.Name()] = h
	r.mu.Unlock()
}

// Route resolves the handler for intent or returns an escalation error.
func (r *Router) Route(intent string) (intents.Handler, error) {
	r.mu.RLock()
	h, ok := r.handlers[intent]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewEscalationRequired(fmt.Sprintf("No handler registered for intent: %s", intent))
	}
	return h, nil
}

// Intents returns the registered intent names, sorted.
func (r *Router) Intents() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}
