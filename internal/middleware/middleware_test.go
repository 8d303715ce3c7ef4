package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/logging"
	"github.com/vidupload/backend/internal/models"
)

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	var seen string
	handler := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "client-id" || rec.Header().Get(RequestIDHeader) != "client-id" {
		t.Fatalf("expected client request id to be reused, got ctx=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(RequestIDHeader) == "" || seen == "" || seen == "client-id" {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "status=500") {
		t.Fatalf("expected panic and completion to be logged, got %s", buf.String())
	}
}

type resolverStub struct {
	user models.User
	err  error
}

func (s resolverStub) ResolveCaller(*http.Request) (models.User, error) {
	return s.user, s.err
}

func TestRequireCaller(t *testing.T) {
	var got models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	RequireCaller(resolverStub{err: auth.ErrUnauthenticated})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected bearer challenge header")
	}

	rec = httptest.NewRecorder()
	RequireCaller(resolverStub{user: models.User{ID: "user-1"}})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusNoContent || got.ID != "user-1" {
		t.Fatalf("expected caller to reach handler, status=%d caller=%+v", rec.Code, got)
	}
}
