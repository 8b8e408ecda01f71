package ws

import "sync"

// Registry is the authoritative map of user ids to their live
// connection ids. It only mutates memory; presence transitions and
// broadcasts are decided by the Tracker.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int]map[string]struct{}
	owner  map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int]map[string]struct{}),
		owner:  make(map[string]int),
	}
}

// Register adds a connection to the user's set. Registering the same
// connection twice is harmless.
func (r *Registry) Register(userID int, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID]; !ok {
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][connID] = struct{}{}
	r.owner[connID] = userID
}

// Unregister removes a connection via the reverse map and reports the
// owning user and how many connections that user still has. Disconnect
// handlers can fire twice; an already-absent connection is a no-op with
// ok=false.
func (r *Registry) Unregister(connID string) (userID int, remaining int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok = r.owner[connID]
	if !ok {
		return 0, 0, false
	}
	delete(r.owner, connID)
	if conns, exists := r.byUser[userID]; exists {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.byUser, userID)
		}
		remaining = len(conns)
	}
	return userID, remaining, true
}

// IsReachable reports whether the user has at least one live connection.
func (r *Registry) IsReachable(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsFor returns a snapshot of the user's connection ids so
// callers can fan out without holding the lock.
func (r *Registry) ConnectionsFor(userID int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.byUser[userID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// Owner returns the user owning a connection.
func (r *Registry) Owner(connID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.owner[connID]
	return userID, ok
}

// AllReachableUsers lists users with a non-empty connection set. Used to
// seed the presence snapshot for a newly joined client.
func (r *Registry) AllReachableUsers() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.byUser))
	for userID := range r.byUser {
		out = append(out, userID)
	}
	return out
}
