// Package client is a small Go client for the relay: REST login and
// lookups, plus the event socket.
package client

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type Group struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []User `json:"members"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	me      User
}

func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) Me() User { return c.me }

// Login authenticates, registering the username on first use.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return err
	}
	c.token, c.me = resp.Token, resp.User
	return nil
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	return users, c.do(ctx, http.MethodGet, "/users", nil, &users)
}

func (c *Client) Online(ctx context.Context) ([]string, error) {
	var ids []string
	return ids, c.do(ctx, http.MethodGet, "/users/online", nil, &ids)
}

func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var groups []Group
	return groups, c.do(ctx, http.MethodGet, "/groups", nil, &groups)
}

func (c *Client) RegisterDevice(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPut, "/users/fcm-token", map[string]string{"fcmToken": token}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, failure.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Frame is one server event with its raw payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Stream is an open event socket. Writes are serialized so Close may race
// with senders.
type Stream struct {
	conn *websocket.Conn
	me   User
	mu   sync.Mutex
}

// Connect opens the event socket with the token obtained at login.
func (c *Client) Connect(ctx context.Context) (*Stream, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": []string{c.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	return &Stream{conn: conn, me: c.me}, nil
}

func (s *Stream) Next() (Frame, error) {
	var f Frame
	err := s.conn.ReadJSON(&f)
	return f, err
}

func (s *Stream) Join(room domain.RoomID) error {
	return s.send(event.JoinRoom, event.RoomPayload{Room: room.String()})
}

func (s *Stream) Leave(room domain.RoomID) error {
	return s.send(event.LeaveRoom, event.RoomPayload{Room: room.String()})
}

func (s *Stream) Typing(room domain.RoomID) error {
	return s.send(event.Typing, event.RoomPayload{Room: room.String()})
}

func (s *Stream) StopTyping(room domain.RoomID) error {
	return s.send(event.StopTyping, event.RoomPayload{Room: room.String()})
}

// SendDirect posts a DM on the canonical room of the pair.
func (s *Stream) SendDirect(receiverID, content string) error {
	return s.send(event.SendMessage, event.SendMessagePayload{
		Type:       domain.KindDM.String(),
		Content:    content,
		Room:       domain.DMRoom(s.me.ID, receiverID).String(),
		ReceiverID: receiverID,
	})
}

func (s *Stream) SendGroup(groupID, content string) error {
	return s.send(event.SendMessage, event.SendMessagePayload{
		Type:    domain.KindGroup.String(),
		Content: content,
		Room:    domain.GroupRoom(groupID).String(),
		GroupID: groupID,
	})
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}

func (s *Stream) send(name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(event.Inbound{Event: name, Data: raw})
}
