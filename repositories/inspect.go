package repositories

import (
	"fmt"
	"strings"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders a stored record for the debug Badger inspector.
// Password hashes are never shown.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	kind, detail, err := describe(key, val)
	switch {
	case err != nil:
		row.Detail = "Error: decode failed"
	case kind != "":
		row.Type = kind
		row.Detail = detail
	}
	return row
}

func describe(key string, val []byte) (string, string, error) {
	switch {
	case strings.HasPrefix(key, userPrefix):
		u, err := decodeUser(val)
		return "USER", fmt.Sprintf("%s (push: %t)", u.Username, u.DeviceToken != ""), err
	case strings.HasPrefix(key, usernamePrefix):
		return "INDEX", "-> " + string(val), nil
	case strings.HasPrefix(key, userGroupPrefix):
		return "INDEX", strings.TrimPrefix(key, userGroupPrefix), nil
	case strings.HasPrefix(key, groupPrefix):
		g, err := decodeGroup(val)
		return "GROUP", g.Name, err
	case strings.HasPrefix(key, memberPrefix):
		m, err := decodeMembership(val)
		return "MEMBER", m.UserID + " in " + m.GroupID, err
	case strings.HasPrefix(key, dmMessagePrefix), strings.HasPrefix(key, groupMessagePrefix):
		msg, err := decodeMessage(val)
		return "MESSAGE", msg.Sender.Username + ": " + msg.Content, err
	case strings.HasPrefix(key, dmPeerPrefix):
		p, err := decodePeer(val)
		return "PEER", p.PeerID + ": " + p.LastMessage, err
	default:
		return "", "", nil
	}
}
