package videos

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
)

type memoryVideos struct {
	mu        sync.Mutex
	items     map[string]models.Video
	deleteErr error
}

func newMemoryVideos() *memoryVideos {
	return &memoryVideos{items: make(map[string]models.Video)}
}

func (m *memoryVideos) Create(_ context.Context, video models.Video) error {
	if err := repositories.ValidateVideo(video); err != nil {
		return repositories.ErrInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[video.ID]; ok {
		return repositories.ErrConflict
	}
	m.items[video.ID] = video
	return nil
}

func (m *memoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.items[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (m *memoryVideos) Update(_ context.Context, video models.Video) error {
	if err := repositories.ValidateVideo(video); err != nil {
		return repositories.ErrInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[video.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	video.OwnerID = existing.OwnerID
	video.ObjectPath = existing.ObjectPath
	video.CreatedAt = existing.CreatedAt
	m.items[video.ID] = video
	return nil
}

func (m *memoryVideos) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryVideos) ListByOwner(_ context.Context, ownerID string, filter repositories.VideoFilter, page repositories.Page) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page = page.Normalize()
	var matched []models.Video
	for _, video := range m.items {
		if video.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && video.Status != *filter.Status {
			continue
		}
		matched = append(matched, video)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	out := make([]models.Video, 0)
	for i := page.Offset; i < len(matched) && len(out) < page.Limit; i++ {
		out = append(out, matched[i])
	}
	return out, nil
}

func (m *memoryVideos) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memoryVideos) get(id string) (models.Video, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.items[id]
	return video, ok
}

type memoryStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	putURLs    []string
	getCalls   int
	deleteErr  error
	existsErr  error
	presignErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) PutURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.putURLs = append(s.putURLs, key)
	return "https://store.example.com/" + key + "?ttl=" + ttl.String(), nil
}

func (s *memoryStore) GetURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	return "https://store.example.com/" + key + "?read&ttl=" + ttl.String(), nil
}

func (s *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memoryStore) Stat(_ context.Context, key string) (models.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return models.ObjectInfo{}, errors.New("not found")
	}
	return models.ObjectInfo{Key: key, Size: int64(len(body))}, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) Put(_ context.Context, key string, r io.Reader, _ string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	return nil
}

func (s *memoryStore) upload(key string, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = []byte(body)
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}
