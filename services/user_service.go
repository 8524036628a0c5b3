//go:generate go run go.uber.org/mock/mockgen -source=user_service.go -destination=../mocks/mock_user_service.go -package=mocks
package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const searchLimit = 20

type IUserService interface {
	ListUsers() ([]domain.User, error)
	SearchUsers(ctx context.Context, query, callerID string) ([]domain.User, error)
	RecentChats(userID string) ([]domain.Peer, error)
	GetUser(id string) (domain.User, error)
	UpdateDeviceToken(userID, token string) error
	OnlineUsers() []string
}

// UserSearcher resolves a free text query into user ids.
type UserSearcher interface {
	Search(ctx context.Context, query, excludeID string, limit int) ([]string, error)
}

// OnlineLister is the read side of the presence registry.
type OnlineLister interface {
	OnlineUsers() []string
}

type UserService struct {
	users    repositories.IUserRepository
	messages repositories.IMessageRepository
	searcher UserSearcher
	presence OnlineLister
	log      *slog.Logger
}

func NewUserService(users repositories.IUserRepository, messages repositories.IMessageRepository,
	searcher UserSearcher, presence OnlineLister, log *slog.Logger) *UserService {
	return &UserService{users: users, messages: messages, searcher: searcher, presence: presence, log: log}
}

// ListUsers returns every account sorted by username.
func (s *UserService) ListUsers() ([]domain.User, error) {
	users, err := s.users.ListUsers()
	if err != nil {
		return nil, errors.PersistenceError{Op: "list users", Err: err}
	}
	return lo.Map(users, func(u repositories.User, _ int) domain.User { return u.ToDomain() }), nil
}

// SearchUsers is a case-insensitive contains match on usernames, caller excluded.
func (s *UserService) SearchUsers(ctx context.Context, query, callerID string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.User{}, nil
	}
	ids, err := s.searcher.Search(ctx, query, callerID, searchLimit)
	if err != nil {
		return nil, err
	}

	found := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetUser(id)
		if errors.Is(err, errors.ErrNotFound) {
			// The index may lag behind a failed write
			s.log.Debug("Indexed user not found", "user_id", id)
			continue
		}
		if err != nil {
			return nil, errors.PersistenceError{Op: "get user", Err: err}
		}
		found = append(found, user.ToDomain())
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Username < found[j].Username })
	return found, nil
}

// RecentChats lists DM peers ordered by their last message, newest first.
func (s *UserService) RecentChats(userID string) ([]domain.Peer, error) {
	peers, err := s.messages.GetRecentPeers(userID)
	if err != nil {
		return nil, errors.PersistenceError{Op: "recent peers", Err: err}
	}
	result := make([]domain.Peer, 0, len(peers))
	for _, p := range peers {
		user, err := s.users.GetUser(p.PeerID)
		if errors.Is(err, errors.ErrNotFound) {
			s.log.Debug("Peer not found", "peer_id", p.PeerID)
			continue
		}
		if err != nil {
			return nil, errors.PersistenceError{Op: "get user", Err: err}
		}
		result = append(result, domain.Peer{User: user.ToDomain(), LastMessage: p.LastMessage, LastAt: p.LastAt})
	}
	return result, nil
}

func (s *UserService) GetUser(id string) (domain.User, error) {
	user, err := s.users.GetUser(id)
	if err != nil {
		return domain.User{}, err
	}
	return user.ToDomain(), nil
}

func (s *UserService) UpdateDeviceToken(userID, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.NewValidationError("fcmToken is required.")
	}
	return s.users.UpdateDeviceToken(userID, token)
}

func (s *UserService) OnlineUsers() []string {
	return s.presence.OnlineUsers()
}
