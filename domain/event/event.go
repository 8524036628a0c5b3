// Package event defines the frames exchanged with clients over the
// persistent connection. Every frame is {"event": name, "data": payload}.
package event

import (
	"chat-relay/domain"
	"encoding/json"
	"time"
)

// Client to server.
const (
	JoinRoom    = "join_room"
	LeaveRoom   = "leave_room"
	SendMessage = "send_message"
	Typing      = "typing"
	StopTyping  = "stop_typing"
)

// Server to client. Typing and StopTyping are echoed under the same names.
const (
	UserOnline  = "user_online"
	UserOffline = "user_offline"
	NewMessage  = "new_message"
	Error       = "error"
)

type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type SendMessagePayload struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	Room       string `json:"room"`
	ReceiverID string `json:"receiverId,omitempty"`
	GroupID    string `json:"groupId,omitempty"`
}

func (p SendMessagePayload) ToRequest() domain.SendMessageRequest {
	return domain.SendMessageRequest{
		Type:       p.Type,
		Content:    p.Content,
		Room:       p.Room,
		ReceiverID: p.ReceiverID,
		GroupID:    p.GroupID,
	}
}

type PresencePayload struct {
	UserID string `json:"userId"`
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SenderPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type MessagePayload struct {
	ID         string        `json:"id"`
	Content    string        `json:"content"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId,omitempty"`
	GroupID    string        `json:"groupId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	Sender     SenderPayload `json:"sender"`
}

func ToMessagePayload(m domain.PersistedMessage) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		Content:    m.Content,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		GroupID:    m.GroupID,
		CreatedAt:  m.CreatedAt,
		Sender:     SenderPayload{ID: m.Sender.ID, Username: m.Sender.Username},
	}
}

func NewMessageEvent(m domain.PersistedMessage) Outbound {
	return Outbound{Event: NewMessage, Data: ToMessagePayload(m)}
}

func UserOnlineEvent(userID string) Outbound {
	return Outbound{Event: UserOnline, Data: PresencePayload{UserID: userID}}
}

func UserOfflineEvent(userID string) Outbound {
	return Outbound{Event: UserOffline, Data: PresencePayload{UserID: userID}}
}

func TypingEvent(name string, who domain.UserIdentity, room domain.RoomID) Outbound {
	return Outbound{Event: name, Data: TypingPayload{UserID: who.ID, Username: who.Username, Room: room.String()}}
}

func ErrorEvent(message string) Outbound {
	return Outbound{Event: Error, Data: ErrorPayload{Message: message}}
}
