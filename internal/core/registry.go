package core

import "sync"

// Registry maps a user identity to the set of live connections for that user.
// A user appears in the registry iff it has at least one live connection.
// Lifecycle mutation goes through the Hub, which serializes presence
// derivation with registry edges; direct reads are safe at any time.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]*Client // userID -> connID -> client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]map[string]*Client)}
}

// Admit registers the connection under its user. Returns true if the user
// went from zero to one connection. No-op if already present.
func (r *Registry) Admit(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[c.Identity.UserID]
	if !ok {
		conns = make(map[string]*Client)
		r.users[c.Identity.UserID] = conns
	}
	if _, exists := conns[c.ID]; exists {
		return false
	}
	first := len(conns) == 0
	conns[c.ID] = c
	return first
}

// Remove deletes the connection from its user's set. Returns true if the set
// became empty. Unknown connections are idempotent no-ops: a duplicate
// disconnect event may arrive after the entry was already cleared.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[c.Identity.UserID]
	if !ok {
		return false
	}
	if _, exists := conns[c.ID]; !exists {
		return false
	}
	delete(conns, c.ID)
	if len(conns) == 0 {
		delete(r.users, c.Identity.UserID)
		return true
	}
	return false
}

// ConnectionsFor returns a snapshot of the user's live connections.
// Empty slice if the user is unknown.
func (r *Registry) ConnectionsFor(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[userID]
	out := make([]*Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// All returns a snapshot of every live connection.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Client
	for _, conns := range r.users {
		for _, c := range conns {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionCount returns the number of live connections for the user.
func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}
