package repositories

import (
	"context"

	"github.com/vidupload/backend/internal/models"
)

// VideoRepository exposes data access for upload records.
type VideoRepository interface {
	Repository[models.Video]
	ListByOwner(ctx context.Context, ownerID string, filter VideoFilter, page Page) ([]models.Video, error)
}
