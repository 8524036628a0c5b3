package domain

import (
	"chat-relay/errors"
	"strings"
)

// MessageKind is the closed set of message types a client may send.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindDM
	KindGroup
)

func ParseMessageKind(s string) MessageKind {
	switch s {
	case "dm":
		return KindDM
	case "group":
		return KindGroup
	default:
		return KindUnknown
	}
}

func (k MessageKind) String() string {
	switch k {
	case KindDM:
		return "dm"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// SendMessageRequest is the raw send_message payload as received on the wire.
type SendMessageRequest struct {
	Type       string
	Content    string
	Room       string
	ReceiverID string
	GroupID    string
}

// Command is a validated send_message. DirectMessage and GroupMessage are
// the only implementations.
type Command interface {
	RoomID() RoomID
	Kind() MessageKind
	Text() string
	command()
}

type DirectMessage struct {
	Content    string
	Room       RoomID
	ReceiverID string
}

func (d DirectMessage) RoomID() RoomID    { return d.Room }
func (d DirectMessage) Kind() MessageKind { return KindDM }
func (d DirectMessage) Text() string      { return d.Content }
func (DirectMessage) command()            {}

type GroupMessage struct {
	Content string
	Room    RoomID
	GroupID string
}

func (g GroupMessage) RoomID() RoomID    { return g.Room }
func (g GroupMessage) Kind() MessageKind { return KindGroup }
func (g GroupMessage) Text() string      { return g.Content }
func (GroupMessage) command()            {}

// ParseCommand validates a raw request. Content is trimmed; the room is kept
// as supplied by the client and is not checked against DMRoom or GroupRoom.
func ParseCommand(req SendMessageRequest) (Command, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" || req.Room == "" {
		return nil, errors.NewValidationError("content and room required")
	}

	switch ParseMessageKind(req.Type) {
	case KindDM:
		if req.ReceiverID == "" {
			return nil, errors.NewValidationError("receiverId required")
		}
		return DirectMessage{Content: content, Room: RoomID(req.Room), ReceiverID: req.ReceiverID}, nil
	case KindGroup:
		if req.GroupID == "" {
			return nil, errors.NewValidationError("groupId required")
		}
		return GroupMessage{Content: content, Room: RoomID(req.Room), GroupID: req.GroupID}, nil
	default:
		return nil, errors.NewValidationError("Unknown type: %s", req.Type)
	}
}
