package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidupload/backend/internal/models"
)

// Repository is the primary-key CRUD contract shared by every entity store.
type Repository[T any] interface {
	Create(ctx context.Context, entity T) error
	FindByID(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) error
}

// Validator checks an entity before it is written. Each store is constructed with the
// validator for its entity.
type Validator[T any] func(T) error

func validate[T any](check Validator[T], entity T) error {
	if check == nil {
		return nil
	}
	if err := check(entity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateUser requires the identity fields a stored user cannot lack.
func ValidateUser(user models.User) error {
	switch {
	case strings.TrimSpace(user.ID) == "":
		return errors.New("id is required")
	case len(strings.TrimSpace(user.Username)) < 3:
		return errors.New("username must be at least 3 characters")
	case !strings.Contains(user.Email, "@"):
		return errors.New("email must contain @")
	case user.PasswordHash == "":
		return errors.New("password hash is required")
	}
	return nil
}

// ValidateVideo requires a title, an owner, an object path and a known status.
func ValidateVideo(video models.Video) error {
	switch {
	case strings.TrimSpace(video.ID) == "":
		return errors.New("id is required")
	case strings.TrimSpace(video.Title) == "":
		return errors.New("title is required")
	case strings.TrimSpace(video.OwnerID) == "":
		return errors.New("owner is required")
	case strings.TrimSpace(video.ObjectPath) == "":
		return errors.New("object path is required")
	case !video.Status.Valid():
		return fmt.Errorf("unknown status %q", video.Status)
	}
	return nil
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 100
)

// Page bounds a list query.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the page to a non-negative offset and a limit in [1, MaxPageLimit].
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// VideoFilter narrows owner listings. A nil Status matches every state.
type VideoFilter struct {
	Status *models.VideoStatus
}
