package api

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"time"

	"github.com/samber/lo"
)

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUser(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func toUsers(users []domain.User) []userResponse {
	return lo.Map(users, func(u domain.User, _ int) userResponse { return toUser(u) })
}

type peerResponse struct {
	User        userResponse `json:"user"`
	LastMessage string       `json:"lastMessage"`
	LastAt      time.Time    `json:"lastAt"`
}

type groupResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	CreatedByID string         `json:"createdById"`
	CreatedAt   time.Time      `json:"createdAt"`
	Members     []userResponse `json:"members"`
}

func toGroup(g domain.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		CreatedByID: g.CreatedByID,
		CreatedAt:   g.CreatedAt,
		Members:     toUsers(g.Members),
	}
}

func toGroups(groups []domain.Group) []groupResponse {
	return lo.Map(groups, func(g domain.Group, _ int) groupResponse { return toGroup(g) })
}

// Messages share the socket payload so REST and live clients parse one shape.
func toMessages(msgs []domain.PersistedMessage) []event.MessagePayload {
	return lo.Map(msgs, func(m domain.PersistedMessage, _ int) event.MessagePayload { return event.ToMessagePayload(m) })
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type deviceTokenRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type directMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

type groupMessageRequest struct {
	GroupID string `json:"groupId"`
	Content string `json:"content"`
}
