// Package presence maps authenticated usernames to live connection ids.
package presence

import "sync"

// Registry holds at most one connection per username. Register is
// last-writer-wins: a reconnect replaces the previous mapping and the old
// connection simply stops receiving events. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	byUser map[string]string // username -> connection id
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]string)}
}

// Register binds username to connID, overwriting any existing mapping.
// It returns the replaced connection id, "" if the user was offline.
func (r *Registry) Register(username, connID string) (prev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.byUser[username]
	r.byUser[username] = connID
	return prev
}

// Unregister removes the mapping whose value is connID and returns the
// username it was bound to. A mapping that was already overwritten by a
// newer connection for the same user is left untouched, so a stale
// disconnect can never evict a fresher session.
func (r *Registry) Unregister(connID string) (username string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for user, id := range r.byUser {
		if id == connID {
			delete(r.byUser, user)
			return user, true
		}
	}
	return "", false
}

// Lookup returns the connection id for username, if online.
func (r *Registry) Lookup(username string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUser[username]
	return id, ok
}

func (r *Registry) IsOnline(username string) bool {
	_, ok := r.Lookup(username)
	return ok
}
