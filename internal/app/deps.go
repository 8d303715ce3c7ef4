package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/config"
	"github.com/vidupload/backend/internal/db"
	"github.com/vidupload/backend/internal/handlers"
	"github.com/vidupload/backend/internal/repositories"
	"github.com/vidupload/backend/internal/storage"
	"github.com/vidupload/backend/internal/videos"
)

// Pool is the database handle the service runs on. Health checks ping it.
type Pool interface {
	db.Pool
	Ping(ctx context.Context) error
}

// buildDependencies wires together concrete implementations used by the HTTP handlers. The
// returned cleanup stops the import workers.
func buildDependencies(pool Pool, store *storage.S3Gateway, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	tokens, err := auth.NewTokenService(cfg.Token.Secret, cfg.Token.Algorithm, cfg.Token.AccessTTL)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure tokens: %w", err)
	}

	users := repositories.NewPostgresUserRepository(pool)
	videoRepo := repositories.NewPostgresVideoRepository(pool)

	importer := videos.NewImporter(
		videos.NewYTDLPFetcher(cfg.Import.YTDLPPath, cfg.Import.YTDLPTimeout),
		store,
		videoRepo,
		videos.ImporterConfig{
			QueueSize:  cfg.Import.QueueSize,
			Workers:    cfg.Import.Workers,
			JobTimeout: cfg.Import.YTDLPTimeout,
		},
		logger.With(slog.String("component", "importer")),
	)

	service := videos.NewService(videoRepo, store, videos.Options{
		UploadURLTTL:   cfg.Uploads.UploadURLTTL,
		DownloadURLTTL: cfg.Uploads.DownloadURLTTL,
		Imports:        importer,
	})

	deps := handlers.Dependencies{
		Accounts: auth.NewCredentials(users),
		Tokens:   tokens,
		Guard:    auth.NewGuard(tokens, users),
		Videos:   service,
		DB:       pool,
	}
	return deps, importer.Shutdown, nil
}
