package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/vidupload/backend/internal/models"
)

// ErrUnauthenticated is the single outcome for any failure to resolve a caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// TokenVerifier resolves a signed token to its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder looks users up by username.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// Guard resolves the calling user of a request from its bearer token. Ownership is checked by
// each operation, not here.
type Guard struct {
	tokens TokenVerifier
	users  UserFinder
}

// NewGuard constructs a Guard.
func NewGuard(tokens TokenVerifier, users UserFinder) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// ResolveCaller returns the user identified by the request's Authorization header.
func (g *Guard) ResolveCaller(r *http.Request) (models.User, error) {
	token, err := ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}
	subject, err := g.tokens.Verify(token)
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}
	user, err := g.users.FindByUsername(r.Context(), subject)
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}
	return user, nil
}

type callerKey struct{}

// WithCaller stores the resolved caller on ctx.
func WithCaller(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, callerKey{}, user)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(callerKey{}).(models.User)
	return user, ok
}
