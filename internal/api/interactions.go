package api

import (
	"net/http"
	"sync"

	"matbot/internal/assistant"
)

// sessionCookie identifies one browser's interaction
const sessionCookie = "matbot_session"

// InteractionManager maps browser cookies to interaction contexts. Each
// browser gets its own explicit context; nothing is shared between
// connections except the stores behind them.
type InteractionManager struct {
	factory func() *assistant.Interaction

	mu     sync.Mutex
	active map[string]*assistant.Interaction
}

// NewInteractionManager creates a manager that builds interactions with
// the given factory
func NewInteractionManager(factory func() *assistant.Interaction) *InteractionManager {
	return &InteractionManager{
		factory: factory,
		active:  make(map[string]*assistant.Interaction),
	}
}

// Get returns the interaction for a token, or nil
func (m *InteractionManager) Get(token string) *assistant.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[token]
}

// Create builds a fresh interaction and returns it with its token
func (m *InteractionManager) Create() (string, *assistant.Interaction) {
	it := m.factory()
	m.mu.Lock()
	m.active[it.ID] = it
	m.mu.Unlock()
	return it.ID, it
}

// Drop forgets an interaction
func (m *InteractionManager) Drop(token string) {
	m.mu.Lock()
	delete(m.active, token)
	m.mu.Unlock()
}

// Len returns the number of live interactions
func (m *InteractionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// interaction resolves the request's interaction, creating one (and
// setting the cookie) for first-time visitors
func (s *Server) interaction(w http.ResponseWriter, r *http.Request) *assistant.Interaction {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if it := s.interactions.Get(cookie.Value); it != nil {
			return it
		}
	}

	token, it := s.interactions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return it
}
