package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
	"github.com/vidupload/backend/internal/videos"
)

// stubVideos records the arguments of the last call and returns canned results.
type stubVideos struct {
	video    models.Video
	list     []models.Video
	ticket   videos.UploadTicket
	download videos.DownloadTicket
	outcome  videos.DeleteOutcome
	err      error

	gotFilename string
	gotMeta     videos.Metadata
	gotPatch    videos.Patch
	gotFilter   repositories.VideoFilter
	gotPage     repositories.Page
	gotSource   string
	gotCaller   string
	gotVideoID  string
}

func (s *stubVideos) BeginUpload(_ context.Context, ownerID, filename string) (videos.UploadTicket, error) {
	s.gotCaller, s.gotFilename = ownerID, filename
	return s.ticket, s.err
}

func (s *stubVideos) ConfirmMetadata(_ context.Context, videoID, callerID string, meta videos.Metadata) (models.Video, error) {
	s.gotVideoID, s.gotCaller, s.gotMeta = videoID, callerID, meta
	return s.video, s.err
}

func (s *stubVideos) Get(_ context.Context, videoID string) (models.Video, error) {
	s.gotVideoID = videoID
	return s.video, s.err
}

func (s *stubVideos) ListByOwner(_ context.Context, ownerID string, filter repositories.VideoFilter, page repositories.Page) ([]models.Video, error) {
	s.gotCaller, s.gotFilter, s.gotPage = ownerID, filter, page
	return s.list, s.err
}

func (s *stubVideos) Update(_ context.Context, videoID, callerID string, patch videos.Patch) (models.Video, error) {
	s.gotVideoID, s.gotCaller, s.gotPatch = videoID, callerID, patch
	return s.video, s.err
}

func (s *stubVideos) Delete(_ context.Context, videoID, callerID string) (videos.DeleteOutcome, error) {
	s.gotVideoID, s.gotCaller = videoID, callerID
	return s.outcome, s.err
}

func (s *stubVideos) DownloadURL(_ context.Context, videoID, callerID string) (videos.DownloadTicket, error) {
	s.gotVideoID, s.gotCaller = videoID, callerID
	return s.download, s.err
}

func (s *stubVideos) BeginImport(_ context.Context, ownerID, sourceURL string) (models.Video, error) {
	s.gotCaller, s.gotSource = ownerID, sourceURL
	return s.video, s.err
}

var testCaller = models.User{ID: "user-1", Username: "alice"}

// serveAs routes req through a mux so path values resolve, with testCaller already
// authenticated.
func serveAs(h VideoHandler, pattern string, handler func(VideoHandler) http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler(h))
	req = req.WithContext(auth.WithCaller(req.Context(), testCaller))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestVideoHandlerUpload(t *testing.T) {
	svc := &stubVideos{ticket: videos.UploadTicket{UploadURL: "https://store/put", VideoID: "video-1", ExpiresIn: 3600}}
	rec := serveAs(VideoHandler{Videos: svc}, "POST /videos/upload", func(h VideoHandler) http.HandlerFunc { return h.Upload },
		httptest.NewRequest(http.MethodPost, "/videos/upload?filename=clip.mp4", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotFilename != "clip.mp4" || svc.gotCaller != testCaller.ID {
		t.Fatalf("unexpected call args filename=%q caller=%q", svc.gotFilename, svc.gotCaller)
	}
	body := decodeBody(t, rec)
	if body["upload_url"] != "https://store/put" || body["video_id"] != "video-1" || body["expires_in"] != float64(3600) {
		t.Fatalf("unexpected body %v", body)
	}

	svc.err = videos.ErrInvalidFilename
	rec = serveAs(VideoHandler{Videos: svc}, "POST /videos/upload", func(h VideoHandler) http.HandlerFunc { return h.Upload },
		httptest.NewRequest(http.MethodPost, "/videos/upload?filename=notes.txt", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestVideoHandlerRequiresCaller(t *testing.T) {
	handler := VideoHandler{Videos: &stubVideos{}}
	rec := httptest.NewRecorder()
	handler.Upload(rec, httptest.NewRequest(http.MethodPost, "/videos/upload?filename=clip.mp4", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
}

func TestVideoHandlerMetadata(t *testing.T) {
	svc := &stubVideos{video: models.Video{ID: "video-1", Title: "Holiday", Status: models.VideoStatusCompleted}}
	metadata := func(h VideoHandler) http.HandlerFunc { return h.Metadata }

	rec := serveAs(VideoHandler{Videos: svc}, "POST /videos/{id}/metadata", metadata,
		httptest.NewRequest(http.MethodPost, "/videos/video-1/metadata", strings.NewReader(`{"title":"Holiday","description":"beach","tags":["sun","sea"]}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotVideoID != "video-1" || svc.gotMeta.Title != "Holiday" || len(svc.gotMeta.Tags) != 2 {
		t.Fatalf("unexpected call args id=%q meta=%+v", svc.gotVideoID, svc.gotMeta)
	}
	if body := decodeBody(t, rec); body["status"] != "completed" {
		t.Fatalf("unexpected body %v", body)
	}

	rec = serveAs(VideoHandler{Videos: svc}, "POST /videos/{id}/metadata", metadata,
		httptest.NewRequest(http.MethodPost, "/videos/video-1/metadata", strings.NewReader(`{"description":"no title"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing title got %d", rec.Code)
	}

	svc.err = videos.ErrUploadNotVerified
	rec = serveAs(VideoHandler{Videos: svc}, "POST /videos/{id}/metadata", metadata,
		httptest.NewRequest(http.MethodPost, "/videos/video-1/metadata", strings.NewReader(`{"title":"Holiday"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unverified upload got %d", rec.Code)
	}
	if body := decodeBody(t, rec); !strings.Contains(body["error"].(string), "upload not verified") {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestVideoHandlerList(t *testing.T) {
	list := func(h VideoHandler) http.HandlerFunc { return h.List }

	svc := &stubVideos{list: []models.Video{{ID: "b"}, {ID: "a"}}}
	rec := serveAs(VideoHandler{Videos: svc}, "GET /videos", list,
		httptest.NewRequest(http.MethodGet, "/videos?skip=5&limit=10&status=Completed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotPage != (repositories.Page{Offset: 5, Limit: 10}) {
		t.Fatalf("unexpected page %+v", svc.gotPage)
	}
	if svc.gotFilter.Status == nil || *svc.gotFilter.Status != models.VideoStatusCompleted {
		t.Fatalf("expected completed filter got %+v", svc.gotFilter)
	}

	svc = &stubVideos{list: []models.Video{}}
	rec = serveAs(VideoHandler{Videos: svc}, "GET /videos", list, httptest.NewRequest(http.MethodGet, "/videos", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array got %d %q", rec.Code, rec.Body.String())
	}
	if svc.gotPage != (repositories.Page{Offset: 0, Limit: repositories.DefaultPageLimit}) || svc.gotFilter.Status != nil {
		t.Fatalf("unexpected defaults page=%+v filter=%+v", svc.gotPage, svc.gotFilter)
	}

	for _, query := range []string{"skip=-1", "skip=abc", "limit=0", "limit=101", "limit=x"} {
		rec := serveAs(VideoHandler{Videos: &stubVideos{}}, "GET /videos", list, httptest.NewRequest(http.MethodGet, "/videos?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected status 400 got %d", query, rec.Code)
		}
	}

	svc = &stubVideos{err: videos.ErrInvalidStatus}
	rec = serveAs(VideoHandler{Videos: svc}, "GET /videos", list, httptest.NewRequest(http.MethodGet, "/videos?status=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid status got %d", rec.Code)
	}
}

func TestVideoHandlerGetChecksOwnership(t *testing.T) {
	get := func(h VideoHandler) http.HandlerFunc { return h.Get }

	svc := &stubVideos{video: models.Video{ID: "video-1", OwnerID: testCaller.ID}}
	rec := serveAs(VideoHandler{Videos: svc}, "GET /videos/{id}", get, httptest.NewRequest(http.MethodGet, "/videos/video-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if svc.gotVideoID != "video-1" {
		t.Fatalf("expected path id to be forwarded got %q", svc.gotVideoID)
	}

	svc.video.OwnerID = "someone-else"
	rec = serveAs(VideoHandler{Videos: svc}, "GET /videos/{id}", get, httptest.NewRequest(http.MethodGet, "/videos/video-1", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "not enough permissions" {
		t.Fatalf("unexpected body %v", body)
	}

	svc.err = videos.ErrNotFound
	rec = serveAs(VideoHandler{Videos: svc}, "GET /videos/{id}", get, httptest.NewRequest(http.MethodGet, "/videos/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestVideoHandlerUpdate(t *testing.T) {
	update := func(h VideoHandler) http.HandlerFunc { return h.Update }

	svc := &stubVideos{video: models.Video{ID: "video-1", Title: "New"}}
	rec := serveAs(VideoHandler{Videos: svc}, "PUT /videos/{id}", update,
		httptest.NewRequest(http.MethodPut, "/videos/video-1", strings.NewReader(`{"title":"New","status":"processing"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotPatch.Title == nil || *svc.gotPatch.Title != "New" {
		t.Fatalf("expected title in patch got %+v", svc.gotPatch)
	}
	if svc.gotPatch.Description != nil || svc.gotPatch.Tags != nil {
		t.Fatalf("expected absent fields to stay nil got %+v", svc.gotPatch)
	}
	if svc.gotPatch.Status == nil || *svc.gotPatch.Status != models.VideoStatusProcessing {
		t.Fatalf("expected processing status got %+v", svc.gotPatch.Status)
	}

	rec = serveAs(VideoHandler{Videos: svc}, "PUT /videos/{id}", update,
		httptest.NewRequest(http.MethodPut, "/videos/video-1", strings.NewReader(`{"status":"archived"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown status got %d", rec.Code)
	}

	svc.err = videos.ErrForbidden
	rec = serveAs(VideoHandler{Videos: svc}, "PUT /videos/{id}", update,
		httptest.NewRequest(http.MethodPut, "/videos/video-1", strings.NewReader(`{"title":"Mine now"}`)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 got %d", rec.Code)
	}
}

func TestVideoHandlerDelete(t *testing.T) {
	del := func(h VideoHandler) http.HandlerFunc { return h.Delete }

	svc := &stubVideos{outcome: videos.DeleteOutcome{ObjectErr: errors.New("store unavailable")}}
	rec := serveAs(VideoHandler{Videos: svc}, "DELETE /videos/{id}", del, httptest.NewRequest(http.MethodDelete, "/videos/video-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Video deleted successfully" || body["object_deleted"] != false {
		t.Fatalf("unexpected body %v", body)
	}

	svc.err = errors.New("database down")
	rec = serveAs(VideoHandler{Videos: svc}, "DELETE /videos/{id}", del, httptest.NewRequest(http.MethodDelete, "/videos/video-1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "internal server error" {
		t.Fatalf("expected generic error got %v", body)
	}
}

func TestVideoHandlerDownload(t *testing.T) {
	download := func(h VideoHandler) http.HandlerFunc { return h.Download }

	svc := &stubVideos{download: videos.DownloadTicket{DownloadURL: "https://store/get", ExpiresIn: 3600}}
	rec := serveAs(VideoHandler{Videos: svc}, "GET /videos/{id}/download", download, httptest.NewRequest(http.MethodGet, "/videos/video-1/download", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["download_url"] != "https://store/get" {
		t.Fatalf("unexpected body %v", body)
	}
	if svc.gotVideoID != "video-1" || svc.gotCaller != testCaller.ID {
		t.Fatalf("unexpected call args id=%q caller=%q", svc.gotVideoID, svc.gotCaller)
	}
}

func TestVideoHandlerImport(t *testing.T) {
	imp := func(h VideoHandler) http.HandlerFunc { return h.Import }

	svc := &stubVideos{video: models.Video{ID: "video-1", Status: models.VideoStatusUploading}}
	rec := serveAs(VideoHandler{Videos: svc}, "POST /videos/import", imp,
		httptest.NewRequest(http.MethodPost, "/videos/import", strings.NewReader(`{"url":"https://example.com/watch?v=1"}`)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotSource != "https://example.com/watch?v=1" {
		t.Fatalf("unexpected source %q", svc.gotSource)
	}

	rec = serveAs(VideoHandler{Videos: svc}, "POST /videos/import", imp,
		httptest.NewRequest(http.MethodPost, "/videos/import", strings.NewReader(`{"url":"not a url"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}

	svc.err = videos.ErrImportUnavailable
	rec = serveAs(VideoHandler{Videos: svc}, "POST /videos/import", imp,
		httptest.NewRequest(http.MethodPost, "/videos/import", strings.NewReader(`{"url":"https://example.com/v"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 got %d", rec.Code)
	}
}

type stubResolver struct {
	user models.User
	err  error
}

func (s stubResolver) ResolveCaller(*http.Request) (models.User, error) { return s.user, s.err }

func TestRegisterRoutesProtectsVideoEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	svc := &stubVideos{list: []models.Video{}}
	RegisterRoutes(mux, Dependencies{
		Accounts: stubAccounts{},
		Tokens:   stubTokens{},
		Guard:    stubResolver{err: auth.ErrUnauthenticated},
		Videos:   svc,
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/videos"},
		{http.MethodGet, "/videos/"},
		{http.MethodPost, "/videos/upload?filename=a.mp4"},
		{http.MethodGet, "/videos/abc"},
		{http.MethodDelete, "/videos/abc"},
		{http.MethodGet, "/videos/abc/download"},
		{http.MethodGet, "/auth/me"},
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected status 401 got %d", tc.method, tc.path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public health check got %d", rec.Code)
	}
}

func TestRegisterRoutesResolvesCaller(t *testing.T) {
	mux := http.NewServeMux()
	svc := &stubVideos{list: []models.Video{}}
	RegisterRoutes(mux, Dependencies{Guard: stubResolver{user: testCaller}, Videos: svc})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotCaller != testCaller.ID {
		t.Fatalf("expected caller %q got %q", testCaller.ID, svc.gotCaller)
	}
}
