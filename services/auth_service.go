//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"log/slog"
)

type IAuthService interface {
	Login(username, password string) (Session, error)
}

// UserIndexer keeps the username search index in sync with new accounts.
type UserIndexer interface {
	Index(user domain.User) error
}

// Session is returned by a successful login.
type Session struct {
	Token string
	User  domain.User
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
	index          UserIndexer
	log            *slog.Logger
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager, index UserIndexer, log *slog.Logger) *AuthService {
	return &AuthService{userRepository: repo, tokens: tokens, index: index, log: log}
}

// Login authenticates a user, creating the account on first sight of the
// username. A known username with a wrong password is rejected.
func (s *AuthService) Login(username, password string) (Session, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Username: username, Password: password}); err != nil {
		return Session{}, err
	}

	user, err := s.userRepository.GetUserByUsername(username)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		if user, err = s.register(username, password); err != nil {
			return Session{}, err
		}
	case err != nil:
		return Session{}, errors.PersistenceError{Op: "get user", Err: err}
	default:
		match, err := auth.ComparePassword(password, user.PasswordHash)
		if err != nil || !match {
			return Session{}, errors.ErrInvalidCredentials
		}
	}

	token, err := s.tokens.Generate(user.Identity())
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return Session{Token: token, User: user.ToDomain()}, nil
}

func (s *AuthService) register(username, password string) (repositories.User, error) {
	// Hashing stays here so the repository never sees a plain password
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return repositories.User{}, fmt.Errorf("hashing failed: %w", err)
	}
	user, err := s.userRepository.CreateUser(username, hashedPassword)
	if err != nil {
		return repositories.User{}, err
	}
	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)

	if s.index != nil {
		if err := s.index.Index(user.ToDomain()); err != nil {
			s.log.Warn("Unable to index user", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}
