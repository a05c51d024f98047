package chat

import "sync"

// Mode distinguishes the two conversation styles a chat can run in. Each
// (chat, mode) pair owns an independent session.
type Mode string

const (
	// ModePlain forwards messages straight to the backend.
	ModePlain Mode = "plain"
	// ModeRules injects the rule sheet before the first message.
	ModeRules Mode = "rules"
)

type sessionKey struct {
	ChatID string
	Mode   Mode
}

// Registry holds live sessions keyed by (chat, mode) and creates them on
// demand through a factory.
type Registry struct {
	mu         sync.Mutex
	sessions   map[sessionKey]*Session
	newSession func() *Session
}

// NewRegistry creates a registry backed by the given session factory.
func NewRegistry(newSession func() *Session) *Registry {
	return &Registry{
		sessions:   make(map[sessionKey]*Session),
		newSession: newSession,
	}
}

// GetOrCreate returns the session for (chatID, mode), creating it if needed.
func (r *Registry) GetOrCreate(chatID string, mode Mode) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{ChatID: chatID, Mode: mode}
	s, ok := r.sessions[key]
	if !ok {
		s = r.newSession()
		r.sessions[key] = s
	}
	return s
}

// Get returns the session for (chatID, mode), or nil when none exists.
func (r *Registry) Get(chatID string, mode Mode) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionKey{ChatID: chatID, Mode: mode}]
}

// Delete removes the session for (chatID, mode). Deleting an absent session
// is a no-op.
func (r *Registry) Delete(chatID string, mode Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionKey{ChatID: chatID, Mode: mode})
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
