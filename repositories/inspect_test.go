package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspectMapper(t *testing.T) {
	req := require.New(t)
	db := newDB(t)
	users := NewUserRepository(db)

	u, err := users.CreateUser("alice", "secret-hash")
	req.NoError(err)

	row := InspectMapper(string(userKey(u.ID)), encodeUser(u))
	req.Equal("USER", row.Type)
	req.Equal("alice (push: false)", row.Detail)
	req.NotContains(row.Detail, "secret-hash")

	row = InspectMapper("username:alice", []byte(u.ID))
	req.Equal("INDEX", row.Type)

	row = InspectMapper(string(groupKey("g1")), []byte{0xff})
	req.Equal("Error: decode failed", row.Detail)
}
