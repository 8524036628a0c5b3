package ws

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/presence"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type capturingQueue struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (q *capturingQueue) Enqueue(n domain.Notification) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifications = append(q.notifications, n)
	return true
}

func (q *capturingQueue) all() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Notification(nil), q.notifications...)
}

type relay struct {
	server   *httptest.Server
	handler  *Handler
	tokens   *auth.TokenManager
	users    *repositories.UserRepository
	groups   *repositories.GroupRepository
	messages *repositories.MessageRepository
	presence *presence.Registry
	registry *runtime.Registry
	queue    *capturingQueue
}

func newRelay(t *testing.T, options Options) *relay {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	r := &relay{
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
		users:    repositories.NewUserRepository(db),
		groups:   repositories.NewGroupRepository(db),
		messages: repositories.NewMessageRepository(db, log),
		presence: presence.NewRegistry(),
		registry: runtime.NewRegistry(),
		queue:    &capturingQueue{},
	}
	router := runtime.NewRouter(log, r.presence, r.registry, r.messages, r.groups, r.users, r.queue)
	r.handler = NewHandler(router, auth.NewJWTAuthenticator(r.tokens), options, log)
	r.server = httptest.NewServer(r.handler)
	t.Cleanup(func() {
		r.server.Close()
		_ = db.Close()
	})
	return r
}

func (r *relay) user(t *testing.T, name string) (domain.UserIdentity, string) {
	t.Helper()
	u, err := r.users.CreateUser(name, "hash")
	require.NoError(t, err)
	token, err := r.tokens.Generate(u.Identity())
	require.NoError(t, err)
	return u.Identity(), token
}

func (r *relay) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(r.server.URL, "http") + "/?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (r *relay) waitSubscribers(t *testing.T, room domain.RoomID, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.registry.GetSinksForRoom(room)) == n },
		2*time.Second, 10*time.Millisecond)
}

func send(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(event.Inbound{Event: name, Data: raw}))
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// next returns the first frame named name, skipping the others.
func next(t *testing.T, conn *websocket.Conn, name string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == name {
			return f
		}
	}
}

func TestHandler_Rejects_Missing_Or_Invalid_Token(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	url := "ws" + strings.TrimPrefix(r.server.URL, "http")

	for _, suffix := range []string{"/", "/?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+suffix, nil)
		req.Error(err)
		req.Equal(http.StatusUnauthorized, resp.StatusCode)
	}
	req.Empty(r.presence.OnlineUsers())
}

func TestHandler_Accepts_Bearer_Header(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	alice, token := r.user(t, "alice")

	url := "ws" + strings.TrimPrefix(r.server.URL, "http")
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	req.NoError(err)
	defer conn.Close()

	req.Eventually(func() bool { return r.presence.IsOnline(alice.ID) }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_Presence_Lifecycle(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	alice, aliceToken := r.user(t, "alice")
	bob, bobToken := r.user(t, "bob")

	// Given alice online
	aliceConn := r.dial(t, aliceToken)
	req.Eventually(func() bool { return r.presence.IsOnline(alice.ID) }, 2*time.Second, 10*time.Millisecond)

	// When bob connects then leaves
	bobConn := r.dial(t, bobToken)
	online := next(t, aliceConn, event.UserOnline)
	req.JSONEq(`{"userId":"`+bob.ID+`"}`, string(online.Data))
	req.NoError(bobConn.Close())

	// Then alice hears about both and bob is offline
	offline := next(t, aliceConn, event.UserOffline)
	req.JSONEq(`{"userId":"`+bob.ID+`"}`, string(offline.Data))
	req.Eventually(func() bool { return !r.presence.IsOnline(bob.ID) }, 2*time.Second, 10*time.Millisecond)
	req.True(r.presence.IsOnline(alice.ID))
}

func TestHandler_Direct_Message_Between_Online_Users(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	alice, aliceToken := r.user(t, "alice")
	bob, bobToken := r.user(t, "bob")
	req.NoError(r.users.UpdateDeviceToken(bob.ID, "bob-device"))
	room := domain.DMRoom(alice.ID, bob.ID)

	// Given both users in the DM room
	aliceConn := r.dial(t, aliceToken)
	bobConn := r.dial(t, bobToken)
	send(t, aliceConn, event.JoinRoom, event.RoomPayload{Room: room.String()})
	send(t, bobConn, event.JoinRoom, event.RoomPayload{Room: room.String()})
	r.waitSubscribers(t, room, 2)

	// When alice sends "hi"
	send(t, aliceConn, event.SendMessage, event.SendMessagePayload{
		Type: "dm", Content: "hi", Room: room.String(), ReceiverID: bob.ID,
	})

	// Then bob receives it from alice and no push is queued
	var msg event.MessagePayload
	req.NoError(json.Unmarshal(next(t, bobConn, event.NewMessage).Data, &msg))
	req.Equal("hi", msg.Content)
	req.Equal(alice.ID, msg.SenderID)
	req.Equal(bob.ID, msg.ReceiverID)
	req.Equal("alice", msg.Sender.Username)

	history, err := r.messages.GetDirectMessages(alice.ID, bob.ID, 1, 50)
	req.NoError(err)
	req.Len(history, 1)
	req.Empty(r.queue.all())
}

func TestHandler_Direct_Message_To_Offline_User_Is_Pushed(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	alice, aliceToken := r.user(t, "alice")
	bob, _ := r.user(t, "bob")
	req.NoError(r.users.UpdateDeviceToken(bob.ID, "bob-device"))
	room := domain.DMRoom(alice.ID, bob.ID)

	// Given bob never connected
	aliceConn := r.dial(t, aliceToken)
	send(t, aliceConn, event.JoinRoom, event.RoomPayload{Room: room.String()})
	r.waitSubscribers(t, room, 1)

	// When alice sends a DM
	send(t, aliceConn, event.SendMessage, event.SendMessagePayload{
		Type: "dm", Content: "hi", Room: room.String(), ReceiverID: bob.ID,
	})
	next(t, aliceConn, event.NewMessage)

	// Then exactly one push goes to bob's device
	req.Eventually(func() bool { return len(r.queue.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	n := r.queue.all()[0]
	req.Equal("bob-device", n.Token)
	req.Equal("💬 alice", n.Title)
	req.Equal("hi", n.Body)
	req.Equal("dm", n.Data["type"])
	req.Equal(alice.ID, n.Data["senderId"])
	req.Equal(room.String(), n.Data["room"])
}

func TestHandler_Direct_Message_To_Unknown_Receiver_Is_Rejected(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	alice, _ := r.user(t, "alice")
	bob, _ := r.user(t, "bob")
	_, err := r.messages.CreateMessage(domain.NewMessage{Content: "real", Sender: alice, ReceiverID: bob.ID})
	req.NoError(err)

	mallory, malloryToken := r.user(t, "mallory")
	malloryConn := r.dial(t, malloryToken)

	for _, receiver := range []string{"no-such-user", alice.ID + "_" + bob.ID + ":"} {
		// When mallory targets an account that does not exist
		room := domain.DMRoom(mallory.ID, receiver)
		send(t, malloryConn, event.SendMessage, event.SendMessagePayload{
			Type: "dm", Content: "forged", Room: room.String(), ReceiverID: receiver,
		})

		// Then the send fails like any storage failure
		var payload event.ErrorPayload
		req.NoError(json.Unmarshal(next(t, malloryConn, event.Error).Data, &payload))
		req.Equal("Failed to send message", payload.Message)
	}

	// And nothing leaked into the alice/bob history or the push queue
	history, err := r.messages.GetDirectMessages(alice.ID, bob.ID, 1, 50)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("real", history[0].Content)
	peers, err := r.messages.GetRecentPeers(mallory.ID)
	req.NoError(err)
	req.Empty(peers)
	req.Empty(r.queue.all())
}

func TestHandler_Group_Message_From_Non_Member(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	owner, ownerToken := r.user(t, "owner")
	_, intruderToken := r.user(t, "intruder")
	group, err := r.groups.CreateGroup("Gophers", owner.ID)
	req.NoError(err)
	room := domain.GroupRoom(group.ID)

	// Given the owner listening to the group room
	ownerConn := r.dial(t, ownerToken)
	intruderConn := r.dial(t, intruderToken)
	send(t, ownerConn, event.JoinRoom, event.RoomPayload{Room: room.String()})
	send(t, intruderConn, event.JoinRoom, event.RoomPayload{Room: room.String()})
	r.waitSubscribers(t, room, 2)

	// When a non member posts to it
	send(t, intruderConn, event.SendMessage, event.SendMessagePayload{
		Type: "group", Content: "x", Room: room.String(), GroupID: group.ID,
	})

	// Then only the sender gets an error and nothing is stored
	var payload event.ErrorPayload
	req.NoError(json.Unmarshal(next(t, intruderConn, event.Error).Data, &payload))
	req.Equal("Not a group member", payload.Message)

	history, err := r.messages.GetGroupMessages(group.ID, 1, 50)
	req.NoError(err)
	req.Empty(history)

	// The owner's next frame is the typing we send now, not a new_message
	send(t, intruderConn, event.Typing, event.RoomPayload{Room: room.String()})
	req.NoError(ownerConn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var f frame
	for {
		req.NoError(ownerConn.ReadJSON(&f))
		if f.Event != event.UserOnline {
			break
		}
	}
	req.Equal(event.Typing, f.Event)
}

func TestHandler_Malformed_Frame_Keeps_Connection(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	_, token := r.user(t, "alice")
	conn := r.dial(t, token)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var payload event.ErrorPayload
	req.NoError(json.Unmarshal(next(t, conn, event.Error).Data, &payload))
	req.Equal("invalid payload", payload.Message)

	send(t, conn, "shout", nil)
	req.NoError(json.Unmarshal(next(t, conn, event.Error).Data, &payload))
	req.Equal("Unknown event: shout", payload.Message)
}

func TestHandler_Rate_Limit(t *testing.T) {
	req := require.New(t)
	options := DefaultOptions()
	options.RateLimitBurst = 1
	options.RateLimitRefill = time.Hour
	r := newRelay(t, options)
	_, token := r.user(t, "alice")
	conn := r.dial(t, token)

	// The first frame spends the only token
	send(t, conn, event.JoinRoom, event.RoomPayload{Room: "lobby"})
	send(t, conn, event.JoinRoom, event.RoomPayload{Room: "lobby"})

	var payload event.ErrorPayload
	req.NoError(json.Unmarshal(next(t, conn, event.Error).Data, &payload))
	req.Equal("Rate limit exceeded", payload.Message)
}

func TestHandler_Blocks_Disallowed_Origin(t *testing.T) {
	req := require.New(t)
	options := DefaultOptions()
	options.Origins = []string{"https://chat.example.com"}
	r := newRelay(t, options)
	_, token := r.user(t, "alice")
	url := "ws" + strings.TrimPrefix(r.server.URL, "http") + "/?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	req.Error(err)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://CHAT.example.com"}})
	req.NoError(err)
	_ = conn.Close()
}

func TestHandler_Shutdown_Closes_Sessions(t *testing.T) {
	req := require.New(t)
	r := newRelay(t, DefaultOptions())
	alice, token := r.user(t, "alice")
	r.dial(t, token)
	req.Eventually(func() bool { return r.handler.Active() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := contextWithTimeout(2 * time.Second)
	defer cancel()
	req.NoError(r.handler.Shutdown(ctx))

	req.Zero(r.handler.Active())
	req.False(r.presence.IsOnline(alice.ID))
}
