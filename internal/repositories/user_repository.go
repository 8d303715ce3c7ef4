package repositories

import (
	"context"

	"github.com/vidupload/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Repository[models.User]
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}
