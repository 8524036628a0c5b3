//go:generate go run go.uber.org/mock/mockgen -source=group_service.go -destination=../mocks/mock_group_service.go -package=mocks
package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"log/slog"
	"strings"
)

type IGroupService interface {
	MyGroups(userID string) ([]domain.Group, error)
	AllGroups() ([]domain.Group, error)
	GetGroup(id string) (domain.Group, error)
	CreateGroup(name, creatorID string) (domain.Group, error)
	Join(userID, groupID string) (domain.Group, error)
	Leave(userID, groupID string) error
}

type GroupService struct {
	groups repositories.IGroupRepository
	log    *slog.Logger
}

func NewGroupService(groups repositories.IGroupRepository, log *slog.Logger) *GroupService {
	return &GroupService{groups: groups, log: log}
}

func (s *GroupService) MyGroups(userID string) ([]domain.Group, error) {
	return s.groups.ListUserGroups(userID)
}

func (s *GroupService) AllGroups() ([]domain.Group, error) {
	return s.groups.ListGroups()
}

func (s *GroupService) GetGroup(id string) (domain.Group, error) {
	return s.groups.GetGroup(id)
}

// CreateGroup trims the name and makes the creator the first member.
func (s *GroupService) CreateGroup(name, creatorID string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Group{}, errors.NewValidationError("Group name is required.")
	}
	group, err := s.groups.CreateGroup(name, creatorID)
	if err != nil {
		return domain.Group{}, err
	}
	s.log.Info("Group created", "group_id", group.ID, "user_id", creatorID)
	return group, nil
}

// Join is idempotent and returns the group with its refreshed members.
func (s *GroupService) Join(userID, groupID string) (domain.Group, error) {
	return s.groups.Join(userID, groupID)
}

func (s *GroupService) Leave(userID, groupID string) error {
	return s.groups.Leave(userID, groupID)
}
