package relay

import "sync"

// Registry maps online user IDs to their open connections. One registry is
// constructed per server instance and shared by the relay and the HTTP layer.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register records conn as userID's connection. A later registration silently
// replaces an earlier one; the prior connection is not closed (a user is
// expected to have at most one active client).
func (r *Registry) Register(userID string, conn Conn) {
	if userID == "" {
		return
	}
	r.mu.Lock()
	r.conns[userID] = conn
	r.mu.Unlock()
}

// Lookup returns the connection registered for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	conn, ok := r.conns[userID]
	r.mu.RUnlock()
	return conn, ok
}

// Remove drops the entry whose connection matches conn, regardless of user ID,
// and returns the user IDs removed. Called on connection close, which can fire
// before any application-level unregister. Absence is not an error.
func (r *Registry) Remove(conn Conn) []string {
	var removed []string
	r.mu.Lock()
	for userID, c := range r.conns {
		if c == conn {
			delete(r.conns, userID)
			removed = append(removed, userID)
		}
	}
	r.mu.Unlock()
	return removed
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.conns)
	r.mu.RUnlock()
	return n
}

// snapshot returns the current connections, optionally excluding one. Sends
// happen outside the lock so a slow socket cannot stall registration.
func (r *Registry) snapshot(except Conn) []Conn {
	r.mu.RLock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		if except != nil && c == except {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()
	return out
}
