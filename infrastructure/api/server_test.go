package api

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/services"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeCounts struct {
	counts repositories.Counts
	err    error
}

func (f fakeCounts) Counts() (repositories.Counts, error) { return f.counts, f.err }

type fakeStats struct{}

func (fakeStats) Refresh() observability.MonitoringStats {
	return observability.MonitoringStats{OnlineUsers: 2, Goroutines: 10}
}

type apiFixture struct {
	handler  http.Handler
	auth     *mocks.MockIAuthService
	users    *mocks.MockIUserService
	groups   *mocks.MockIGroupService
	messages *mocks.MockIMessageService
	token    string
	me       domain.UserIdentity
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	me := domain.UserIdentity{ID: "me", Username: "alice"}
	token, err := tokens.Generate(me)
	require.NoError(t, err)

	f := apiFixture{
		auth:     mocks.NewMockIAuthService(ctrl),
		users:    mocks.NewMockIUserService(ctrl),
		groups:   mocks.NewMockIGroupService(ctrl),
		messages: mocks.NewMockIMessageService(ctrl),
		token:    token,
		me:       me,
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := NewServer(f.auth, f.users, f.groups, f.messages, auth.NewJWTAuthenticator(tokens),
		fakeCounts{counts: repositories.Counts{Users: 3, Groups: 1, Messages: 7}}, fakeStats{}, log)
	mux := http.NewServeMux()
	server.Routes(mux)
	f.handler = Logging(log, mux)
	return f
}

func (f apiFixture) do(t *testing.T, method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, path, reader)
	if authenticated {
		r.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestLogin(t *testing.T) {
	t.Run("should return token and user", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		f.auth.EXPECT().Login("alice", "secret").Return(services.Session{
			Token: "jwt", User: domain.User{ID: "me", Username: "alice", CreatedAt: created},
		}, nil)

		w := f.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "secret"}, false)

		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`{"token":"jwt","user":{"id":"me","username":"alice","createdAt":"2024-01-02T03:04:05Z"}}`, w.Body.String())
	})

	t.Run("should map errors to status codes", func(t *testing.T) {
		tests := []struct {
			name    string
			err     error
			status  int
			message string
		}{
			{"missing fields", errors.ValidationError{Message: "Username and password are required."}, http.StatusBadRequest, "Username and password are required."},
			{"bad username", fmt.Errorf("%w: min", errors.ErrInvalidUsername), http.StatusBadRequest, "Username must be 2-32 characters."},
			{"wrong password", errors.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect password."},
			{"storage", errors.PersistenceError{Op: "get user", Err: fmt.Errorf("io")}, http.StatusInternalServerError, "Internal server error."},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := require.New(t)
				f := newAPIFixture(t)
				f.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(services.Session{}, tt.err)

				w := f.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "x", "password": "y"}, false)

				req.Equal(tt.status, w.Code)
				req.Equal(tt.message, messageOf(t, w))
			})
		}
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		r := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()

		f.handler.ServeHTTP(w, r)

		req.Equal(http.StatusBadRequest, w.Code)
	})
}

func TestProtected_Routes_Require_Token(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	for _, path := range []string{"/users", "/groups", "/messages/dm/bob"} {
		w := f.do(t, http.MethodGet, path, nil, false)
		req.Equal(http.StatusUnauthorized, w.Code, path)
	}
}

func TestHealth_And_Debug(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil, false)
	req.Equal(http.StatusOK, w.Code)
	var health map[string]string
	req.NoError(json.Unmarshal(w.Body.Bytes(), &health))
	req.Equal("ok", health["status"])
	req.NotEmpty(health["timestamp"])

	w = f.do(t, http.MethodGet, "/debug/db", nil, false)
	req.JSONEq(`{"users":3,"groups":1,"messages":7}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/debug/stats", nil, false)
	var stats observability.MonitoringStats
	req.NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	req.Equal(2, stats.OnlineUsers)
}

func TestUsers(t *testing.T) {
	t.Run("search passes the caller id", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.users.EXPECT().SearchUsers(gomock.Any(), "bo", "me").Return([]domain.User{{ID: "b", Username: "bob"}}, nil)

		w := f.do(t, http.MethodGet, "/users/search?q=bo", nil, true)

		req.Equal(http.StatusOK, w.Code)
		var users []userResponse
		req.NoError(json.Unmarshal(w.Body.Bytes(), &users))
		req.Len(users, 1)
		req.Equal("bob", users[0].Username)
	})

	t.Run("unknown user is a 404", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.users.EXPECT().GetUser("ghost").Return(domain.User{}, fmt.Errorf("user ghost: %w", errors.ErrNotFound))

		w := f.do(t, http.MethodGet, "/users/ghost", nil, true)

		req.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("recent chats keep their order", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.users.EXPECT().RecentChats("me").Return([]domain.Peer{
			{User: domain.User{ID: "b", Username: "bob"}, LastMessage: "new"},
			{User: domain.User{ID: "c", Username: "carol"}, LastMessage: "old"},
		}, nil)

		w := f.do(t, http.MethodGet, "/users/recent-chats", nil, true)

		var peers []peerResponse
		req.NoError(json.Unmarshal(w.Body.Bytes(), &peers))
		req.Equal("bob", peers[0].User.Username)
		req.Equal("old", peers[1].LastMessage)
	})

	t.Run("online returns the presence snapshot", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.users.EXPECT().OnlineUsers().Return([]string{"me", "b"})

		w := f.do(t, http.MethodGet, "/users/online", nil, true)

		req.JSONEq(`["me","b"]`, w.Body.String())
	})

	t.Run("fcm token is required", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)

		w := f.do(t, http.MethodPut, "/users/fcm-token", map[string]string{}, true)

		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal("fcmToken is required.", messageOf(t, w))
	})

	t.Run("fcm token is stored for the caller", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.users.EXPECT().UpdateDeviceToken("me", "device-1").Return(nil)

		w := f.do(t, http.MethodPut, "/users/fcm-token", map[string]string{"fcmToken": "device-1"}, true)

		req.Equal(http.StatusOK, w.Code)
		req.Equal("FCM token updated.", messageOf(t, w))
	})
}

func TestGroups(t *testing.T) {
	t.Run("create returns 201 with members", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.groups.EXPECT().CreateGroup("Gophers", "me").Return(domain.Group{
			ID: "g1", Name: "Gophers", CreatedByID: "me", Members: []domain.User{{ID: "me", Username: "alice"}},
		}, nil)

		w := f.do(t, http.MethodPost, "/groups", map[string]string{"name": "Gophers"}, true)

		req.Equal(http.StatusCreated, w.Code)
		var group groupResponse
		req.NoError(json.Unmarshal(w.Body.Bytes(), &group))
		req.Equal("g1", group.ID)
		req.Len(group.Members, 1)
	})

	t.Run("all is not captured by the id route", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.groups.EXPECT().AllGroups().Return([]domain.Group{}, nil)

		w := f.do(t, http.MethodGet, "/groups/all", nil, true)

		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`[]`, w.Body.String())
	})

	t.Run("join an unknown group is a 404", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.groups.EXPECT().Join("me", "nope").Return(domain.Group{}, errors.ErrNotFound)

		w := f.do(t, http.MethodPost, "/groups/nope/join", nil, true)

		req.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("leave", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.groups.EXPECT().Leave("me", "g1").Return(nil)

		w := f.do(t, http.MethodDelete, "/groups/g1/leave", nil, true)

		req.Equal(http.StatusOK, w.Code)
		req.Equal("Left group.", messageOf(t, w))
	})
}

func TestMessages(t *testing.T) {
	t.Run("dm history forwards pagination", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.messages.EXPECT().DirectHistory("me", "bob", 2, 10).Return([]domain.PersistedMessage{
			{ID: "m1", Content: "hi", SenderID: "me", ReceiverID: "bob", Sender: domain.UserIdentity{ID: "me", Username: "alice"}},
		}, nil)

		w := f.do(t, http.MethodGet, "/messages/dm/bob?page=2&limit=10", nil, true)

		req.Equal(http.StatusOK, w.Code)
		var msgs []map[string]any
		req.NoError(json.Unmarshal(w.Body.Bytes(), &msgs))
		req.Equal("hi", msgs[0]["content"])
		req.Equal("bob", msgs[0]["receiverId"])
	})

	t.Run("group history of a non member is forbidden", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.messages.EXPECT().GroupHistory("me", "g1", 0, 0).Return(nil, errors.AuthorizationError{
			Message: "You are not a member of this group.", Err: errors.ErrNotGroupMember,
		})

		w := f.do(t, http.MethodGet, "/messages/group/g1", nil, true)

		req.Equal(http.StatusForbidden, w.Code)
		req.Equal("You are not a member of this group.", messageOf(t, w))
	})

	t.Run("post dm returns 201", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.messages.EXPECT().PostDirect(f.me, "bob", "hello").Return(domain.PersistedMessage{ID: "m1", Content: "hello"}, nil)

		w := f.do(t, http.MethodPost, "/messages/dm", map[string]string{"receiverId": "bob", "content": "hello"}, true)

		req.Equal(http.StatusCreated, w.Code)
	})

	t.Run("post group validation error", func(t *testing.T) {
		req := require.New(t)
		f := newAPIFixture(t)
		f.messages.EXPECT().PostGroup(f.me, "", "hello").Return(domain.PersistedMessage{},
			errors.NewValidationError("groupId and content are required."))

		w := f.do(t, http.MethodPost, "/messages/group", map[string]string{"content": "hello"}, true)

		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal("groupId and content are required.", messageOf(t, w))
	})
}
