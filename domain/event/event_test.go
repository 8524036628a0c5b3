package event

import (
	"chat-relay/domain"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewMessageEvent_WireShape(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := domain.PersistedMessage{
		ID:         "m1",
		Content:    "hi",
		SenderID:   "a",
		ReceiverID: "b",
		CreatedAt:  at,
		Sender:     domain.UserIdentity{ID: "a", Username: "alice"},
	}

	raw, err := json.Marshal(NewMessageEvent(msg))
	req.NoError(err)

	var decoded map[string]any
	req.NoError(json.Unmarshal(raw, &decoded))
	req.Equal("new_message", decoded["event"])

	data := decoded["data"].(map[string]any)
	req.Equal("m1", data["id"])
	req.Equal("b", data["receiverId"])
	req.NotContains(data, "groupId")
	req.Equal("2026-03-01T12:00:00Z", data["createdAt"])
	req.Equal(map[string]any{"id": "a", "username": "alice"}, data["sender"])
}

func TestInbound_DecodesSendMessage(t *testing.T) {
	req := require.New(t)
	raw := `{"event":"send_message","data":{"type":"group","content":"x","room":"group_g","groupId":"g"}}`

	var in Inbound
	req.NoError(json.Unmarshal([]byte(raw), &in))
	req.Equal(SendMessage, in.Event)

	var payload SendMessagePayload
	req.NoError(json.Unmarshal(in.Data, &payload))
	req.Equal(domain.SendMessageRequest{Type: "group", Content: "x", Room: "group_g", GroupID: "g"}, payload.ToRequest())
}
