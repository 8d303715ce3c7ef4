package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
)

// ImportJob asks the importer to fetch SourceURL into ObjectKey for the given video.
type ImportJob struct {
	VideoID   string
	ObjectKey string
	SourceURL string
}

// Fetcher downloads a remote video into a local directory.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, dir string) (Download, error)
}

// ObjectWriter stores fetched files and confirms they landed.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ImporterConfig controls the concurrency characteristics of the importer.
type ImporterConfig struct {
	QueueSize  int
	Workers    int
	JobTimeout time.Duration
}

// Importer runs remote imports on a fixed worker pool. A job ends with its video either
// completed, with size and duration filled in, or failed.
type Importer struct {
	fetcher Fetcher
	store   ObjectWriter
	videos  repositories.VideoRepository
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	jobs   chan ImportJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// ErrImporterClosed is returned by Enqueue after Shutdown.
var ErrImporterClosed = errors.New("importer closed")

// NewImporter starts the worker pool.
func NewImporter(fetcher Fetcher, store ObjectWriter, videos repositories.VideoRepository, cfg ImporterConfig, logger *slog.Logger) *Importer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	imp := &Importer{
		fetcher: fetcher,
		store:   store,
		videos:  videos,
		logger:  logger,
		timeout: cfg.JobTimeout,
		now:     time.Now,
		jobs:    make(chan ImportJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	imp.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go imp.worker()
	}

	return imp
}

// Enqueue schedules job, blocking while the queue is full.
func (i *Importer) Enqueue(ctx context.Context, job ImportJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return ErrImporterClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return ErrImporterClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown stops accepting jobs, cancels running ones and waits for the workers to exit.
func (i *Importer) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Importer) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case job := <-i.jobs:
			i.handleJob(job)
		}
	}
}

func (i *Importer) handleJob(job ImportJob) {
	logger := i.logger.With(slog.String("video_id", job.VideoID), slog.String("source", job.SourceURL))

	ctx, cancel := context.WithTimeout(i.ctx, i.timeout)
	defer cancel()

	dl, err := i.fetchAndStore(ctx, job)
	if err != nil {
		logger.Error("video import failed", slog.Any("error", err))
		i.recordFailure(job.VideoID, logger)
		return
	}

	if err := i.recordSuccess(job.VideoID, dl); err != nil {
		logger.Error("mark import completed", slog.Any("error", err))
		i.recordFailure(job.VideoID, logger)
		return
	}
	logger.Info("video import completed", slog.Int64("size", dl.Size))
}

func (i *Importer) fetchAndStore(ctx context.Context, job ImportJob) (Download, error) {
	dir, err := os.MkdirTemp("", "vidupload-import-*")
	if err != nil {
		return Download{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dl, err := i.fetcher.Fetch(ctx, job.SourceURL, dir)
	if err != nil {
		return Download{}, err
	}

	file, err := os.Open(dl.Path)
	if err != nil {
		return Download{}, fmt.Errorf("open downloaded file: %w", err)
	}
	defer file.Close()

	if err := i.store.Put(ctx, job.ObjectKey, file, "video/mp4"); err != nil {
		return Download{}, err
	}

	exists, err := i.store.Exists(ctx, job.ObjectKey)
	if err != nil {
		return Download{}, fmt.Errorf("verify import: %w", err)
	}
	if !exists {
		return Download{}, ErrUploadNotVerified
	}
	return dl, nil
}

func (i *Importer) recordSuccess(videoID string, dl Download) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	video, err := i.videos.FindByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video: %w", err)
	}

	size := dl.Size
	video.FileSize = &size
	if dl.DurationSeconds > 0 {
		duration := dl.DurationSeconds
		video.DurationSeconds = &duration
	}
	if strings.HasPrefix(video.Title, importTitlePrefix) && dl.Title != "" {
		video.Title = dl.Title
		video.Description = dl.Description
	}
	video.Status = models.VideoStatusCompleted
	now := i.now().UTC()
	video.UpdatedAt = &now

	return i.videos.Update(ctx, video)
}

func (i *Importer) recordFailure(videoID string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	video, err := i.videos.FindByID(ctx, videoID)
	if err != nil {
		logger.Error("load video to record import failure", slog.Any("error", err))
		return
	}
	video.Status = models.VideoStatusFailed
	now := i.now().UTC()
	video.UpdatedAt = &now
	if err := i.videos.Update(ctx, video); err != nil {
		logger.Error("record import failure", slog.Any("error", err))
	}
}
