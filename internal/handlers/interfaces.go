package handlers

import (
	"context"

	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
	"github.com/vidupload/backend/internal/videos"
)

// Accounts registers users and checks their passwords.
type Accounts interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Verify(ctx context.Context, username, password string) (models.User, error)
}

// TokenIssuer issues and refreshes bearer tokens.
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Refresh(token string) (string, error)
}

// VideoService is the upload orchestrator used by the video handlers.
type VideoService interface {
	BeginUpload(ctx context.Context, ownerID, filename string) (videos.UploadTicket, error)
	ConfirmMetadata(ctx context.Context, videoID, callerID string, meta videos.Metadata) (models.Video, error)
	Get(ctx context.Context, videoID string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, filter repositories.VideoFilter, page repositories.Page) ([]models.Video, error)
	Update(ctx context.Context, videoID, callerID string, patch videos.Patch) (models.Video, error)
	Delete(ctx context.Context, videoID, callerID string) (videos.DeleteOutcome, error)
	DownloadURL(ctx context.Context, videoID, callerID string) (videos.DownloadTicket, error)
	BeginImport(ctx context.Context, ownerID, sourceURL string) (models.Video, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
