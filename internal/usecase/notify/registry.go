package notify

import "sync"

// Registry tracks live sessions per user for real-time pushes. It owns
// its own lifecycle: transports register a session on connect and
// unregister it on disconnect, the dispatcher only looks sessions up.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Pusher // userID -> sessionID -> pusher
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[string]Pusher)}
}

// Register binds a live session to a user. A second register with the
// same session id replaces the pusher.
func (r *Registry) Register(userID, sessionID string, p Pusher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[userID] == nil {
		r.sessions[userID] = make(map[string]Pusher)
	}
	r.sessions[userID][sessionID] = p
}

// Unregister drops a session. Unknown sessions are a no-op.
func (r *Registry) Unregister(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions[userID], sessionID)
	if len(r.sessions[userID]) == 0 {
		delete(r.sessions, userID)
	}
}

// Lookup returns the pushers for every live session of a user.
func (r *Registry) Lookup(userID string) []Pusher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pushers := make([]Pusher, 0, len(r.sessions[userID]))
	for _, p := range r.sessions[userID] {
		pushers = append(pushers, p)
	}
	return pushers
}

// Online reports whether the user has at least one live session.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}
