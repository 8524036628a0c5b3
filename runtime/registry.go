package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

type Set map[string]struct{}

// Registry is the process-local room directory.
// A connection belongs to any number of rooms; a room only lives while
// it has at least one subscriber.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.Connection // map connID -> Connection
	roomMembers map[domain.RoomID]Set          // map room to connIDs
	connRooms   map[string]map[domain.RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.Connection),
		roomMembers: make(map[domain.RoomID]Set),
		connRooms:   make(map[string]map[domain.RoomID]struct{}),
	}
}

func (r *Registry) Connect(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[conn.ConnID()] = conn
	if _, ok := r.connRooms[conn.ConnID()]; !ok {
		r.connRooms[conn.ConnID()] = make(map[domain.RoomID]struct{})
	}
}

// Disconnect forgets a connection together with every room it joined.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.connRooms[connID] {
		r.leave(connID, roomID)
	}
	delete(r.connRooms, connID)
	delete(r.sessions, connID)
}

// Subscribe adds a connected session to a room, creating the room on the fly.
// Unknown connections are ignored.
func (r *Registry) Subscribe(connID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.connRooms[connID]
	if !ok {
		return
	}
	rooms[roomID] = struct{}{}

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][connID] = struct{}{}
}

func (r *Registry) Unsubscribe(connID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rooms, ok := r.connRooms[connID]; ok {
		delete(rooms, roomID)
	}
	r.leave(connID, roomID)
}

// leave must be called with the write lock held.
func (r *Registry) leave(connID string, roomID domain.RoomID) {
	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, connID)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}

// GetSinksForRoom resolves the room's subscribers into their live connections.
// Returns nil if the room doesn't exist.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	activeSinks := make([]contract.Connection, 0, len(members))
	for connID := range members {
		if sink, exists := r.sessions[connID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// GetOtherSinks returns every connected session except connID.
func (r *Registry) GetOtherSinks(connID string) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var others []contract.Connection
	for id, sink := range r.sessions {
		if id != connID {
			others = append(others, sink)
		}
	}
	return others
}

// Rooms returns the rooms a connection is currently subscribed to.
func (r *Registry) Rooms(connID string) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.RoomID, 0, len(r.connRooms[connID]))
	for roomID := range r.connRooms[connID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}
