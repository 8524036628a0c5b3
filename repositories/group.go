//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	groupPrefix     = "group:"
	memberPrefix    = "member:"
	userGroupPrefix = "usergroup:"
)

const (
	groupFieldID = iota + 1
	groupFieldName
	groupFieldCreatedBy
	groupFieldCreatedAt
)

const (
	memberFieldUserID = iota + 1
	memberFieldGroupID
	memberFieldJoinedAt
)

type IGroupRepository interface {
	CreateGroup(name, creatorID string) (domain.Group, error)
	GetGroup(id string) (domain.Group, error)
	ListGroups() ([]domain.Group, error)
	ListUserGroups(userID string) ([]domain.Group, error)
	Join(userID, groupID string) (domain.Group, error)
	Leave(userID, groupID string) error
	FindMembership(userID, groupID string) (domain.Membership, bool, error)
	FindMembersWithTokens(groupID, excludeUserID string) (domain.GroupAudience, error)
}

var (
	_ IGroupRepository         = (*GroupRepository)(nil)
	_ contract.MembershipStore = (*GroupRepository)(nil)
)

// GroupRepository stores groups and their members.
// A membership is written twice: "member:{group}:{user}" lists a group's
// members and "usergroup:{user}:{group}" lists a user's groups.
type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateGroup stores the group with its creator as first member.
func (r *GroupRepository) CreateGroup(name, creatorID string) (domain.Group, error) {
	now := time.Now().UTC()
	group := domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedByID: creatorID,
		CreatedAt:   now,
	}
	var created domain.Group
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := getUser(txn, creatorID); err != nil {
			return err
		}
		if err := txn.Set(groupKey(group.ID), encodeGroup(group)); err != nil {
			return err
		}
		if err := addMember(txn, domain.Membership{UserID: creatorID, GroupID: group.ID, JoinedAt: now}); err != nil {
			return err
		}
		var err error
		created, err = loadGroup(txn, group.ID)
		return err
	})
	return created, err
}

func (r *GroupRepository) GetGroup(id string) (domain.Group, error) {
	var group domain.Group
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		group, err = loadGroup(txn, id)
		return err
	})
	return group, err
}

// ListGroups returns every group, newest first.
func (r *GroupRepository) ListGroups() ([]domain.Group, error) {
	var groups []domain.Group
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []string
		err := scan(txn, groupPrefix, func(key string, _ []byte) error {
			ids = append(ids, strings.TrimPrefix(key, groupPrefix))
			return nil
		})
		if err != nil {
			return err
		}
		groups, err = loadGroups(txn, ids)
		return err
	})
	return newestFirst(groups), err
}

// ListUserGroups returns the groups a user belongs to, newest first.
func (r *GroupRepository) ListUserGroups(userID string) ([]domain.Group, error) {
	var groups []domain.Group
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []string
		prefix := userGroupPrefix + userID + ":"
		err := scan(txn, prefix, func(key string, _ []byte) error {
			ids = append(ids, strings.TrimPrefix(key, prefix))
			return nil
		})
		if err != nil {
			return err
		}
		groups, err = loadGroups(txn, ids)
		return err
	})
	return newestFirst(groups), err
}

// Join is idempotent: joining twice keeps the first join date.
func (r *GroupRepository) Join(userID, groupID string) (domain.Group, error) {
	var group domain.Group
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := getGroupRecord(txn, groupID); err != nil {
			return err
		}
		_, found, err := getMembership(txn, userID, groupID)
		if err != nil {
			return err
		}
		if !found {
			membership := domain.Membership{UserID: userID, GroupID: groupID, JoinedAt: time.Now().UTC()}
			if err := addMember(txn, membership); err != nil {
				return err
			}
		}
		group, err = loadGroup(txn, groupID)
		return err
	})
	return group, err
}

// Leave removes the membership if any. Leaving a group twice is not an error.
func (r *GroupRepository) Leave(userID, groupID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(memberKey(groupID, userID)); err != nil {
			return err
		}
		return txn.Delete(userGroupKey(userID, groupID))
	})
}

func (r *GroupRepository) FindMembership(userID, groupID string) (domain.Membership, bool, error) {
	var (
		membership domain.Membership
		found      bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		membership, found, err = getMembership(txn, userID, groupID)
		return err
	})
	return membership, found, err
}

// FindMembersWithTokens lists the group's members, excludeUserID aside,
// with whatever device token they registered.
func (r *GroupRepository) FindMembersWithTokens(groupID, excludeUserID string) (domain.GroupAudience, error) {
	var audience domain.GroupAudience
	err := r.db.View(func(txn *badger.Txn) error {
		group, err := getGroupRecord(txn, groupID)
		if err != nil {
			return err
		}
		audience = domain.GroupAudience{GroupID: group.ID, GroupName: group.Name}

		for _, userID := range memberIDs(txn, groupID) {
			if userID == excludeUserID {
				continue
			}
			user, err := getUser(txn, userID)
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			audience.Members = append(audience.Members, domain.MemberToken{UserID: user.ID, DeviceToken: user.DeviceToken})
		}
		return nil
	})
	return audience, err
}

func addMember(txn *badger.Txn, m domain.Membership) error {
	if err := txn.Set(memberKey(m.GroupID, m.UserID), encodeMembership(m)); err != nil {
		return err
	}
	return txn.Set(userGroupKey(m.UserID, m.GroupID), nil)
}

func getMembership(txn *badger.Txn, userID, groupID string) (domain.Membership, bool, error) {
	item, err := txn.Get(memberKey(groupID, userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Membership{}, false, nil
	}
	if err != nil {
		return domain.Membership{}, false, err
	}
	var membership domain.Membership
	err = item.Value(func(val []byte) error {
		membership, err = decodeMembership(val)
		return err
	})
	return membership, err == nil, err
}

func memberIDs(txn *badger.Txn, groupID string) []string {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	prefix := []byte(memberPrefix + groupID + ":")
	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids
}

func getGroupRecord(txn *badger.Txn, id string) (domain.Group, error) {
	item, err := txn.Get(groupKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Group{}, fmt.Errorf("group %s: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return domain.Group{}, err
	}
	var group domain.Group
	err = item.Value(func(val []byte) error {
		group, err = decodeGroup(val)
		return err
	})
	return group, err
}

// loadGroup resolves a group with its members sorted by username.
func loadGroup(txn *badger.Txn, id string) (domain.Group, error) {
	group, err := getGroupRecord(txn, id)
	if err != nil {
		return domain.Group{}, err
	}
	group.Members = []domain.User{}
	for _, userID := range memberIDs(txn, id) {
		user, err := getUser(txn, userID)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.Group{}, err
		}
		group.Members = append(group.Members, user.ToDomain())
	}
	sort.Slice(group.Members, func(i, j int) bool { return group.Members[i].Username < group.Members[j].Username })
	return group, nil
}

func loadGroups(txn *badger.Txn, ids []string) ([]domain.Group, error) {
	groups := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		group, err := loadGroup(txn, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func newestFirst(groups []domain.Group) []domain.Group {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].CreatedAt.After(groups[j].CreatedAt) })
	return groups
}

func groupKey(id string) []byte { return []byte(groupPrefix + id) }

func memberKey(groupID, userID string) []byte {
	return []byte(memberPrefix + groupID + ":" + userID)
}

func userGroupKey(userID, groupID string) []byte {
	return []byte(userGroupPrefix + userID + ":" + groupID)
}

func encodeGroup(g domain.Group) []byte {
	return encoder(nil).
		str(groupFieldID, g.ID).
		str(groupFieldName, g.Name).
		str(groupFieldCreatedBy, g.CreatedByID).
		time(groupFieldCreatedAt, g.CreatedAt)
}

func decodeGroup(b []byte) (domain.Group, error) {
	r, err := decode(b)
	if err != nil {
		return domain.Group{}, err
	}
	return domain.Group{
		ID:          r.str(groupFieldID),
		Name:        r.str(groupFieldName),
		CreatedByID: r.str(groupFieldCreatedBy),
		CreatedAt:   r.time(groupFieldCreatedAt),
	}, nil
}

func encodeMembership(m domain.Membership) []byte {
	return encoder(nil).
		str(memberFieldUserID, m.UserID).
		str(memberFieldGroupID, m.GroupID).
		time(memberFieldJoinedAt, m.JoinedAt)
}

func decodeMembership(b []byte) (domain.Membership, error) {
	r, err := decode(b)
	if err != nil {
		return domain.Membership{}, err
	}
	return domain.Membership{
		UserID:   r.str(memberFieldUserID),
		GroupID:  r.str(memberFieldGroupID),
		JoinedAt: r.time(memberFieldJoinedAt),
	}, nil
}
