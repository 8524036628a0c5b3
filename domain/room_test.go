package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDMRoom_IsSymmetric(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 50; i++ {
		a, b := uuid.NewString(), uuid.NewString()
		req.Equal(DMRoom(a, b), DMRoom(b, a))
	}
}

func TestDMRoom_SortsIdentities(t *testing.T) {
	req := require.New(t)

	req.Equal(RoomID("dm_alice_bob"), DMRoom("bob", "alice"))
	req.Equal(RoomID("dm_alice_alice"), DMRoom("alice", "alice"))
}

func TestGroupRoom(t *testing.T) {
	req := require.New(t)
	groupID := uuid.NewString()

	req.Equal(RoomID("group_"+groupID), GroupRoom(groupID))
	req.NotEqual(GroupRoom(groupID), DMRoom(groupID, groupID))
}
