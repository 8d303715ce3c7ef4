package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials indicates the username/password pair did not match a stored user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists indicates the username or email is already registered.
	ErrAccountExists = errors.New("username or email already registered")
	// ErrInvalidAccount indicates the registration details fail the account rules.
	ErrInvalidAccount = errors.New("invalid account details")
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// UserStore is the subset of the user repository the credential store needs.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// Credentials registers accounts and verifies username/password pairs.
type Credentials struct {
	users UserStore
	cost  int
	now   func() time.Time
}

// NewCredentials constructs a credential store over users using the default bcrypt cost.
func NewCredentials(users UserStore) *Credentials {
	return &Credentials{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

// HashPassword hashes a plaintext password with bcrypt.
func (c *Credentials) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a new account. Duplicate usernames or emails yield ErrAccountExists.
func (c *Credentials) Register(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	switch {
	case len(username) < minUsernameLength:
		return models.User{}, fmt.Errorf("%w: username must be at least %d characters", ErrInvalidAccount, minUsernameLength)
	case !strings.Contains(email, "@"):
		return models.User{}, fmt.Errorf("%w: email must contain @", ErrInvalidAccount)
	case len(password) < minPasswordLength:
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidAccount, minPasswordLength)
	}

	if _, err := c.users.FindByUsername(ctx, username); err == nil {
		return models.User{}, ErrAccountExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := c.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrAccountExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hashed, err := c.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    c.now().UTC(),
	}
	if err := c.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return models.User{}, ErrAccountExists
		case errors.Is(err, repositories.ErrInvalid):
			return models.User{}, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Verify returns the user matching username when password is correct.
func (c *Credentials) Verify(ctx context.Context, username, password string) (models.User, error) {
	user, err := c.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}
