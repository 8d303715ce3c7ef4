package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidupload/backend/internal/logging"
	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
)

// ObjectStore is the object store gateway the service mediates with.
type ObjectStore interface {
	PutURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	GetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Stat(ctx context.Context, key string) (models.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// ImportQueue accepts remote import jobs.
type ImportQueue interface {
	Enqueue(ctx context.Context, job ImportJob) error
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	UploadURLTTL   time.Duration
	DownloadURLTTL time.Duration
	Imports        ImportQueue
	Now            func() time.Time
}

// Service drives the upload lifecycle of video records against the object store.
type Service struct {
	videos    repositories.VideoRepository
	store     ObjectStore
	downloads *CachingURLSigner
	imports   ImportQueue
	uploadTTL time.Duration
	now       func() time.Time
}

// NewService constructs the upload orchestrator.
func NewService(videos repositories.VideoRepository, store ObjectStore, opts Options) *Service {
	if opts.UploadURLTTL <= 0 {
		opts.UploadURLTTL = time.Hour
	}
	if opts.DownloadURLTTL <= 0 {
		opts.DownloadURLTTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		videos:    videos,
		store:     store,
		downloads: NewCachingURLSigner(store, opts.DownloadURLTTL),
		imports:   opts.Imports,
		uploadTTL: opts.UploadURLTTL,
		now:       opts.Now,
	}
}

// UploadTicket is handed to the client so it can PUT the file directly into the store.
type UploadTicket struct {
	UploadURL string `json:"upload_url"`
	VideoID   string `json:"video_id"`
	ExpiresIn int    `json:"expires_in"`
}

// DownloadTicket carries a pre-signed read URL.
type DownloadTicket struct {
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
}

// Metadata is the caller-supplied description applied when confirming an upload.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Tags        *[]string
	Status      *models.VideoStatus
}

// DeleteOutcome reports what happened to the stored object during a delete. The object
// delete is best-effort, so its failure is reported here rather than returned as an error.
type DeleteOutcome struct {
	ObjectDeleted bool
	ObjectErr     error
}

// BeginUpload validates filename, signs a write URL for a fresh object key and records the
// pending upload. If the client never uploads, the record stays in the uploading state.
func (s *Service) BeginUpload(ctx context.Context, ownerID, filename string) (UploadTicket, error) {
	ext, err := ValidateFilename(filename)
	if err != nil {
		return UploadTicket{}, err
	}

	ctx, span := logging.StartSpan(ctx, "videos.BeginUpload")
	defer span.End()

	key := ObjectKey(uuid.NewString(), ext)
	uploadURL, err := s.store.PutURL(ctx, key, s.uploadTTL)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("presign upload url: %w", err)
	}

	video := models.Video{
		ID:          uuid.NewString(),
		Title:       "Uploading " + strings.TrimSpace(filename),
		Description: "Video is being uploaded",
		ObjectPath:  key,
		Status:      models.VideoStatusUploading,
		OwnerID:     ownerID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return UploadTicket{}, fmt.Errorf("create video record: %w", err)
	}

	logging.FromContext(ctx).Info("upload started", slog.String("video_id", video.ID), slog.String("object_key", key))

	return UploadTicket{
		UploadURL: uploadURL,
		VideoID:   video.ID,
		ExpiresIn: int(s.uploadTTL / time.Second),
	}, nil
}

// ConfirmMetadata writes the caller's metadata and then verifies the object landed. The two
// steps are not atomic: when verification fails the metadata stays written and the status
// stays as it was.
func (s *Service) ConfirmMetadata(ctx context.Context, videoID, callerID string, meta Metadata) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.ConfirmMetadata")
	defer span.End()

	video, err := s.ownedVideo(ctx, videoID, callerID)
	if err != nil {
		return models.Video{}, err
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		return models.Video{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	video.Title = title
	video.Description = strings.TrimSpace(meta.Description)
	video.Tags = models.JoinTags(meta.Tags)
	if err := s.save(ctx, &video); err != nil {
		return models.Video{}, err
	}

	exists, err := s.store.Exists(ctx, video.ObjectPath)
	if err != nil {
		return models.Video{}, fmt.Errorf("verify upload: %w", err)
	}
	if !exists {
		logging.FromContext(ctx).Warn("upload not found in object store", slog.String("video_id", video.ID))
		return models.Video{}, ErrUploadNotVerified
	}

	if info, err := s.store.Stat(ctx, video.ObjectPath); err == nil {
		size := info.Size
		video.FileSize = &size
	} else {
		logging.FromContext(ctx).Warn("stat uploaded object", slog.String("video_id", video.ID), slog.Any("error", err))
	}

	video.Status = models.VideoStatusCompleted
	if err := s.save(ctx, &video); err != nil {
		return models.Video{}, err
	}

	return video, nil
}

// Get returns a video by id. Ownership is the caller's concern; see EnsureOwner.
func (s *Service) Get(ctx context.Context, videoID string) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, fmt.Errorf("%w: %s", ErrNotFound, videoID)
		}
		return models.Video{}, fmt.Errorf("load video: %w", err)
	}
	return video, nil
}

// EnsureOwner returns ErrForbidden unless callerID owns video.
func EnsureOwner(video models.Video, callerID string) error {
	if video.OwnerID != callerID {
		return ErrForbidden
	}
	return nil
}

// ListByOwner returns a page of the owner's videos, optionally narrowed by status.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, filter repositories.VideoFilter, page repositories.Page) ([]models.Video, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *filter.Status)
	}
	videos, err := s.videos.ListByOwner(ctx, ownerID, filter, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// Update applies patch to a video owned by callerID. Moving a video to completed requires
// the object to be present in the store.
func (s *Service) Update(ctx context.Context, videoID, callerID string, patch Patch) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.Update")
	defer span.End()

	video, err := s.ownedVideo(ctx, videoID, callerID)
	if err != nil {
		return models.Video{}, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Video{}, fmt.Errorf("%w: title must not be blank", ErrValidation)
		}
		video.Title = title
	}
	if patch.Description != nil {
		video.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Tags != nil {
		video.Tags = models.JoinTags(*patch.Tags)
	}
	if patch.Status != nil {
		status := *patch.Status
		if !status.Valid() {
			return models.Video{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		if status == models.VideoStatusCompleted && video.Status != models.VideoStatusCompleted {
			exists, err := s.store.Exists(ctx, video.ObjectPath)
			if err != nil {
				return models.Video{}, fmt.Errorf("verify upload: %w", err)
			}
			if !exists {
				return models.Video{}, ErrUploadNotVerified
			}
		}
		video.Status = status
	}

	if err := s.save(ctx, &video); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

// Delete removes a video owned by callerID. The object is deleted first on a best-effort
// basis; the record is removed regardless and only a record delete failure is returned.
func (s *Service) Delete(ctx context.Context, videoID, callerID string) (DeleteOutcome, error) {
	ctx, span := logging.StartSpan(ctx, "videos.Delete")
	defer span.End()

	video, err := s.ownedVideo(ctx, videoID, callerID)
	if err != nil {
		return DeleteOutcome{}, err
	}

	var outcome DeleteOutcome
	if err := s.store.Delete(ctx, video.ObjectPath); err != nil {
		outcome.ObjectErr = err
		logging.FromContext(ctx).Warn("delete video object",
			slog.String("video_id", video.ID),
			slog.String("object_key", video.ObjectPath),
			slog.Any("error", err),
		)
	} else {
		outcome.ObjectDeleted = true
	}
	s.downloads.Forget(video.ObjectPath)

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return outcome, fmt.Errorf("%w: %s", ErrNotFound, video.ID)
		}
		return outcome, fmt.Errorf("delete video record: %w", err)
	}

	return outcome, nil
}

// DownloadURL returns a pre-signed read URL for a completed video owned by callerID.
func (s *Service) DownloadURL(ctx context.Context, videoID, callerID string) (DownloadTicket, error) {
	video, err := s.ownedVideo(ctx, videoID, callerID)
	if err != nil {
		return DownloadTicket{}, err
	}
	if video.Status != models.VideoStatusCompleted {
		return DownloadTicket{}, ErrUploadNotVerified
	}

	signed, remaining, err := s.downloads.URL(ctx, video.ObjectPath)
	if err != nil {
		return DownloadTicket{}, fmt.Errorf("presign download url: %w", err)
	}
	return DownloadTicket{
		DownloadURL: signed,
		ExpiresIn:   int(remaining / time.Second),
	}, nil
}

const importTitlePrefix = "Importing "

// BeginImport records a pending upload for sourceURL and queues a background fetch into the
// store. The returned record is in the uploading state.
func (s *Service) BeginImport(ctx context.Context, ownerID, sourceURL string) (models.Video, error) {
	if s.imports == nil {
		return models.Video{}, ErrImportUnavailable
	}
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return models.Video{}, fmt.Errorf("%w: %q", ErrInvalidSource, sourceURL)
	}

	ctx, span := logging.StartSpan(ctx, "videos.BeginImport")
	defer span.End()

	video := models.Video{
		ID:          uuid.NewString(),
		Title:       importTitlePrefix + parsed.String(),
		Description: "Video is being imported",
		ObjectPath:  ObjectKey(uuid.NewString(), "mp4"),
		Status:      models.VideoStatusUploading,
		OwnerID:     ownerID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("create video record: %w", err)
	}

	job := ImportJob{VideoID: video.ID, ObjectKey: video.ObjectPath, SourceURL: parsed.String()}
	if err := s.imports.Enqueue(ctx, job); err != nil {
		video.Status = models.VideoStatusFailed
		if saveErr := s.save(ctx, &video); saveErr != nil {
			logging.FromContext(ctx).Error("mark import failed", slog.String("video_id", video.ID), slog.Any("error", saveErr))
		}
		return models.Video{}, fmt.Errorf("%w: %w", ErrImportUnavailable, err)
	}

	logging.FromContext(ctx).Info("import queued", slog.String("video_id", video.ID), slog.String("source", job.SourceURL))
	return video, nil
}

func (s *Service) ownedVideo(ctx context.Context, videoID, callerID string) (models.Video, error) {
	video, err := s.Get(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}
	if err := EnsureOwner(video, callerID); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func (s *Service) save(ctx context.Context, video *models.Video) error {
	now := s.now().UTC()
	video.UpdatedAt = &now
	if err := s.videos.Update(ctx, *video); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("%w: %s", ErrNotFound, video.ID)
		case errors.Is(err, repositories.ErrInvalid):
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}
