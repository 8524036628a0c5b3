package client

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeRelay answers login and /users, and echoes socket frames back.
func fakeRelay(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Incorrect password."}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"jwt-1","user":{"id":"alice","username":"alice"}}`))
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"alice","username":"alice"},{"id":"bob","username":"bob"}]`))
	})
	upgrader := websocket.Upgrader{}
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "jwt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var in event.Inbound
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			if err := conn.WriteJSON(event.Outbound{Event: in.Event, Data: in.Data}); err != nil {
				return
			}
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Login_And_Users(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	c := New(fakeRelay(t).URL)

	req.ErrorContains(c.Login(ctx, "alice", "wrong"), "Incorrect password.")

	req.NoError(c.Login(ctx, "alice", "secret"))
	req.Equal("alice", c.Me().ID)

	users, err := c.Users(ctx)
	req.NoError(err)
	req.Len(users, 2)
}

func TestStream_SendDirect_Uses_Canonical_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	c := New(fakeRelay(t).URL)
	req.NoError(c.Login(ctx, "alice", "secret"))

	stream, err := c.Connect(ctx)
	req.NoError(err)
	defer stream.Close()

	req.NoError(stream.SendDirect("bob", "hi"))

	frame, err := stream.Next()
	req.NoError(err)
	req.Equal(event.SendMessage, frame.Event)
	var payload event.SendMessagePayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal("dm", payload.Type)
	req.Equal(domain.DMRoom("bob", "alice").String(), payload.Room)
	req.Equal("bob", payload.ReceiverID)
}
