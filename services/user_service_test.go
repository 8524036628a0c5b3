package services_test

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type userFixture struct {
	svc      *services.UserService
	users    *mocks.MockIUserRepository
	messages *mocks.MockIMessageRepository
	searcher *mocks.MockUserSearcher
	presence *mocks.MockOnlineLister
}

func newUserFixture(t *testing.T) userFixture {
	ctrl := gomock.NewController(t)
	f := userFixture{
		users:    mocks.NewMockIUserRepository(ctrl),
		messages: mocks.NewMockIMessageRepository(ctrl),
		searcher: mocks.NewMockUserSearcher(ctrl),
		presence: mocks.NewMockOnlineLister(ctrl),
	}
	f.svc = services.NewUserService(f.users, f.messages, f.searcher, f.presence, logs.GetLoggerFromLevel(slog.LevelDebug))
	return f
}

func TestUserService_ListUsers_Hides_Secrets(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)
	f.users.EXPECT().ListUsers().Return([]repositories.User{
		{ID: "1", Username: "alice", PasswordHash: "hash", DeviceToken: "tok"},
	}, nil)

	users, err := f.svc.ListUsers()

	req.NoError(err)
	req.Equal([]domain.User{{ID: "1", Username: "alice"}}, users)
}

func TestUserService_SearchUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("should return an empty list for a blank query", func(t *testing.T) {
		req := require.New(t)
		f := newUserFixture(t)

		users, err := f.svc.SearchUsers(ctx, "   ", "me")

		req.NoError(err)
		req.Empty(users)
	})

	t.Run("should resolve hits sorted by username and skip stale ids", func(t *testing.T) {
		req := require.New(t)
		f := newUserFixture(t)
		f.searcher.EXPECT().Search(ctx, "al", "me", 20).Return([]string{"2", "gone", "1"}, nil)
		f.users.EXPECT().GetUser("2").Return(repositories.User{ID: "2", Username: "alfred"}, nil)
		f.users.EXPECT().GetUser("gone").Return(repositories.User{}, errors.ErrNotFound)
		f.users.EXPECT().GetUser("1").Return(repositories.User{ID: "1", Username: "albert"}, nil)

		users, err := f.svc.SearchUsers(ctx, " al ", "me")

		req.NoError(err)
		req.Len(users, 2)
		req.Equal("albert", users[0].Username)
		req.Equal("alfred", users[1].Username)
	})
}

func TestUserService_RecentChats(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)
	now := time.Now().UTC()
	f.messages.EXPECT().GetRecentPeers("me").Return([]repositories.RecentPeer{
		{PeerID: "bob", LastMessage: "hey", LastAt: now},
		{PeerID: "carol", LastMessage: "yo", LastAt: now.Add(-time.Minute)},
	}, nil)
	f.users.EXPECT().GetUser("bob").Return(repositories.User{ID: "bob", Username: "Bob"}, nil)
	f.users.EXPECT().GetUser("carol").Return(repositories.User{ID: "carol", Username: "Carol"}, nil)

	peers, err := f.svc.RecentChats("me")

	req.NoError(err)
	req.Len(peers, 2)
	req.Equal("Bob", peers[0].User.Username)
	req.Equal("hey", peers[0].LastMessage)
	req.Equal(now, peers[0].LastAt)
}

func TestUserService_RecentChats_Lookup_Failures(t *testing.T) {
	t.Run("should skip a peer whose account is gone", func(t *testing.T) {
		req := require.New(t)
		f := newUserFixture(t)
		f.messages.EXPECT().GetRecentPeers("me").Return([]repositories.RecentPeer{{PeerID: "gone"}, {PeerID: "bob"}}, nil)
		f.users.EXPECT().GetUser("gone").Return(repositories.User{}, fmt.Errorf("user gone: %w", errors.ErrNotFound))
		f.users.EXPECT().GetUser("bob").Return(repositories.User{ID: "bob", Username: "Bob"}, nil)

		peers, err := f.svc.RecentChats("me")

		req.NoError(err)
		req.Len(peers, 1)
		req.Equal("bob", peers[0].User.ID)
	})

	t.Run("should surface a storage failure", func(t *testing.T) {
		req := require.New(t)
		f := newUserFixture(t)
		f.messages.EXPECT().GetRecentPeers("me").Return([]repositories.RecentPeer{{PeerID: "bob"}}, nil)
		f.users.EXPECT().GetUser("bob").Return(repositories.User{}, fmt.Errorf("disk full"))

		_, err := f.svc.RecentChats("me")

		var persistence errors.PersistenceError
		req.ErrorAs(err, &persistence)
		req.ErrorContains(err, "disk full")
	})
}

func TestUserService_UpdateDeviceToken(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)

	var validation errors.ValidationError
	req.ErrorAs(f.svc.UpdateDeviceToken("me", ""), &validation)

	f.users.EXPECT().UpdateDeviceToken("me", "fcm-1").Return(nil)
	req.NoError(f.svc.UpdateDeviceToken("me", "fcm-1"))
}

func TestUserService_OnlineUsers(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)
	f.presence.EXPECT().OnlineUsers().Return([]string{"a", "b"})

	req.Equal([]string{"a", "b"}, f.svc.OnlineUsers())
}
