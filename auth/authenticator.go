package auth

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"strings"
)

var _ contract.Authenticator = (*JWTAuthenticator)(nil)

// JWTAuthenticator resolves a bearer token into the identity it was issued for.
type JWTAuthenticator struct {
	tokens *TokenManager
}

func NewJWTAuthenticator(tokens *TokenManager) *JWTAuthenticator {
	return &JWTAuthenticator{tokens: tokens}
}

func (a *JWTAuthenticator) Authenticate(credential string) (domain.UserIdentity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.UserIdentity{}, errors.AuthError{Err: errors.ErrMissingToken}
	}
	claims, err := a.tokens.Validate(credential)
	if err != nil {
		return domain.UserIdentity{}, errors.AuthError{Err: err}
	}
	return claims.Identity(), nil
}
