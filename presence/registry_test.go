package presence

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Add_Then_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	connID := uuid.NewString()

	// Given a user with one connection
	registry.Add(userID, connID)
	req.True(registry.IsOnline(userID))

	// When the connection goes away
	registry.Remove(userID, connID)

	// Then the user is offline and no empty entry is left behind
	req.False(registry.IsOnline(userID))
	req.Empty(registry.users)
}

func TestRegistry_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	phone, laptop := uuid.NewString(), uuid.NewString()

	registry.Add(userID, phone)
	registry.Add(userID, laptop)
	req.Equal(2, registry.Connections(userID))

	// Removing one device keeps the user online
	registry.Remove(userID, phone)
	req.True(registry.IsOnline(userID))
	req.Equal(1, registry.Connections(userID))

	registry.Remove(userID, laptop)
	req.False(registry.IsOnline(userID))
}

func TestRegistry_Add_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Add("alice", "c1")
	registry.Add("alice", "c1")
	req.Equal(1, registry.Connections("alice"))

	registry.Remove("alice", "c1")
	req.False(registry.IsOnline("alice"))
}

func TestRegistry_Remove_Unknown(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Nothing registered yet
	registry.Remove("ghost", "c1")
	req.False(registry.IsOnline("ghost"))

	// Unknown connection of a known user
	registry.Add("alice", "c1")
	registry.Remove("alice", "c2")
	registry.Remove("alice", "c2")
	req.True(registry.IsOnline("alice"))
}

func TestRegistry_Never_Connected_Is_Offline(t *testing.T) {
	require.False(t, NewRegistry().IsOnline(uuid.NewString()))
}

func TestRegistry_OnlineUsers_Sorted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Add("carol", "c3")
	registry.Add("alice", "c1")
	registry.Add("bob", "c2")
	registry.Remove("bob", "c2")

	req.Equal([]string{"alice", "carol"}, registry.OnlineUsers())
}

func TestRegistry_Concurrent_Access(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			connID := uuid.NewString()
			registry.Add(userID, connID)
			_ = registry.IsOnline(userID)
			registry.Remove(userID, connID)
		}()
	}
	wg.Wait()

	req.False(registry.IsOnline(userID))
	req.Empty(registry.users)
}
