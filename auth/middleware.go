package auth

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// BearerToken extracts the token of an "Authorization: Bearer <jwt>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireBearer rejects requests without a valid bearer token and injects
// the caller identity into the request context.
func RequireBearer(authenticator contract.Authenticator, onError func(w http.ResponseWriter, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(BearerToken(r))
			if err != nil {
				onError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity domain.UserIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the caller set by RequireBearer.
func IdentityFromContext(ctx context.Context) (domain.UserIdentity, error) {
	identity, ok := ctx.Value(identityKey).(domain.UserIdentity)
	if !ok {
		return domain.UserIdentity{}, errors.AuthError{Err: errors.ErrMissingToken}
	}
	return identity, nil
}
