//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"log/slog"
	"strings"
)

const DefaultPageLimit = 50

type IMessageService interface {
	DirectHistory(userID, otherUserID string, page, limit int) ([]domain.PersistedMessage, error)
	GroupHistory(userID, groupID string, page, limit int) ([]domain.PersistedMessage, error)
	PostDirect(sender domain.UserIdentity, receiverID, content string) (domain.PersistedMessage, error)
	PostGroup(sender domain.UserIdentity, groupID, content string) (domain.PersistedMessage, error)
}

// MessageService is the REST path to message history. Posting here only
// persists: live fan-out belongs to the socket router.
type MessageService struct {
	messages repositories.IMessageRepository
	groups   contract.MembershipStore
	filter    contract.ContentFilter
	pageLimit int
	log       *slog.Logger
}

// NewMessageService pages history by pageLimit when the caller gives no
// limit. A non-positive pageLimit falls back to DefaultPageLimit.
func NewMessageService(messages repositories.IMessageRepository, groups contract.MembershipStore, pageLimit int, log *slog.Logger) *MessageService {
	if pageLimit < 1 {
		pageLimit = DefaultPageLimit
	}
	return &MessageService{messages: messages, groups: groups, pageLimit: pageLimit, log: log}
}

// WithContentFilter censors posted content before it is stored.
func (s *MessageService) WithContentFilter(f contract.ContentFilter) *MessageService {
	s.filter = f
	return s
}

func (s *MessageService) DirectHistory(userID, otherUserID string, page, limit int) ([]domain.PersistedMessage, error) {
	page, limit = s.normalizePage(page, limit)
	return s.messages.GetDirectMessages(userID, otherUserID, page, limit)
}

// GroupHistory is reserved to members of the group.
func (s *MessageService) GroupHistory(userID, groupID string, page, limit int) ([]domain.PersistedMessage, error) {
	if err := s.requireMember(userID, groupID); err != nil {
		return nil, err
	}
	page, limit = s.normalizePage(page, limit)
	return s.messages.GetGroupMessages(groupID, page, limit)
}

func (s *MessageService) PostDirect(sender domain.UserIdentity, receiverID, content string) (domain.PersistedMessage, error) {
	content = strings.TrimSpace(content)
	if receiverID == "" || content == "" {
		return domain.PersistedMessage{}, errors.NewValidationError("receiverId and content are required.")
	}
	return s.create(domain.NewMessage{Content: content, Sender: sender, ReceiverID: receiverID})
}

func (s *MessageService) PostGroup(sender domain.UserIdentity, groupID, content string) (domain.PersistedMessage, error) {
	content = strings.TrimSpace(content)
	if groupID == "" || content == "" {
		return domain.PersistedMessage{}, errors.NewValidationError("groupId and content are required.")
	}
	if err := s.requireMember(sender.ID, groupID); err != nil {
		return domain.PersistedMessage{}, err
	}
	return s.create(domain.NewMessage{Content: content, Sender: sender, GroupID: groupID})
}

func (s *MessageService) create(msg domain.NewMessage) (domain.PersistedMessage, error) {
	if s.filter != nil {
		msg.Content = s.filter.Censor(msg.Content)
	}
	saved, err := s.messages.CreateMessage(msg)
	if err != nil {
		return domain.PersistedMessage{}, errors.PersistenceError{Op: "create message", Err: err}
	}
	return saved, nil
}

func (s *MessageService) requireMember(userID, groupID string) error {
	_, ok, err := s.groups.FindMembership(userID, groupID)
	if err != nil {
		return errors.PersistenceError{Op: "find membership", Err: err}
	}
	if !ok {
		return errors.AuthorizationError{Message: "You are not a member of this group.", Err: errors.ErrNotGroupMember}
	}
	return nil
}

func (s *MessageService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.pageLimit
	}
	return page, limit
}
