// Package presence tracks which users currently hold at least one live
// connection. The registry is process-local.
package presence

import (
	"chat-relay/contract"
	"sort"
	"sync"
)

var _ contract.IPresence = (*Registry)(nil)

type Set map[string]struct{}

// Registry maps a user to the set of its live connection ids.
// A user is online iff its set is non-empty; empty sets are never kept.
type Registry struct {
	mu    sync.RWMutex
	users map[string]Set
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]Set)}
}

// Add registers a connection under a user. Adding twice is a no-op.
func (r *Registry) Add(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		conns = make(Set)
		r.users[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Remove deregisters a connection and purges the user once its last
// connection is gone. Unknown users or connections are ignored.
func (r *Registry) Remove(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.users, userID)
	}
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users[userID]) > 0
}

// Connections returns how many live connections a user holds.
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users[userID])
}

// OnlineUsers returns a sorted snapshot of online user ids.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.users))
	for userID := range r.users {
		users = append(users, userID)
	}
	r.mu.RUnlock()

	sort.Strings(users)
	return users
}
