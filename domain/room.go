package domain

import (
	"sort"
	"strings"
)

const (
	dmRoomPrefix    = "dm_"
	groupRoomPrefix = "group_"
	roomSeparator   = "_"
)

// RoomID is a fan-out label. Rooms are never stored, they only exist as
// subscriptions held by the transport.
type RoomID string

func (r RoomID) String() string { return string(r) }

// DMRoom returns the canonical room of a direct conversation.
// DMRoom(a, b) == DMRoom(b, a).
func DMRoom(a, b string) RoomID {
	pair := []string{a, b}
	sort.Strings(pair)
	return RoomID(dmRoomPrefix + strings.Join(pair, roomSeparator))
}

func GroupRoom(groupID string) RoomID {
	return RoomID(groupRoomPrefix + groupID)
}
