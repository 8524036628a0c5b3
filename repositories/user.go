//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix     = "user:"
	usernamePrefix = "username:"
)

// Field numbers of the user record.
const (
	userFieldID = iota + 1
	userFieldUsername
	userFieldPasswordHash
	userFieldCreatedAt
	userFieldDeviceToken
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (User, error)
	GetUser(id string) (User, error)
	GetUserByUsername(username string) (User, error)
	ListUsers() ([]User, error)
	UpdateDeviceToken(userID, token string) error
	GetDeviceToken(userID string) (string, error)
}

var (
	_ IUserRepository           = (*UserRepository)(nil)
	_ contract.DeviceTokenStore = (*UserRepository)(nil)
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// User is the stored account. PasswordHash and DeviceToken never leave
// the service layer.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	DeviceToken  string
	CreatedAt    time.Time
}

func (u User) ToDomain() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func (u User) Identity() domain.UserIdentity {
	return domain.UserIdentity{ID: u.ID, Username: u.Username}
}

// CreateUser persists a new account under a unique username.
// "username:{name}" holds the user id so logins resolve in one lookup.
func (r *UserRepository) CreateUser(username, hashedPassword string) (User, error) {
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(usernamePrefix + username)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), encodeUser(user))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUser(id string) (User, error) {
	var user User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, err
}

func (r *UserRepository) GetUserByUsername(username string) (User, error) {
	var user User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernamePrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("username %q: %w", username, errors.ErrNotFound)
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(id))
		return err
	})
	return user, err
}

// ListUsers returns every account sorted by username.
func (r *UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := r.db.View(func(txn *badger.Txn) error {
		return scan(txn, userPrefix, func(_ string, value []byte) error {
			user, err := decodeUser(value)
			if err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *UserRepository) UpdateDeviceToken(userID, token string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		user, err := getUser(txn, userID)
		if err != nil {
			return err
		}
		user.DeviceToken = token
		return txn.Set(userKey(user.ID), encodeUser(user))
	})
}

// GetDeviceToken returns "" when the user never registered a device.
func (r *UserRepository) GetDeviceToken(userID string) (string, error) {
	user, err := r.GetUser(userID)
	if err != nil {
		return "", err
	}
	return user.DeviceToken, nil
}

func getUser(txn *badger.Txn, id string) (User, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return User{}, fmt.Errorf("user %s: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return User{}, err
	}
	var user User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

func userKey(id string) []byte { return []byte(userPrefix + id) }

func encodeUser(u User) []byte {
	return encoder(nil).
		str(userFieldID, u.ID).
		str(userFieldUsername, u.Username).
		str(userFieldPasswordHash, u.PasswordHash).
		time(userFieldCreatedAt, u.CreatedAt).
		str(userFieldDeviceToken, u.DeviceToken)
}

func decodeUser(b []byte) (User, error) {
	r, err := decode(b)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           r.str(userFieldID),
		Username:     r.str(userFieldUsername),
		PasswordHash: r.str(userFieldPasswordHash),
		CreatedAt:    r.time(userFieldCreatedAt),
		DeviceToken:  r.str(userFieldDeviceToken),
	}, nil
}
