package handlers

import (
	"net/http"

	"github.com/vidupload/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	auth := AuthHandler{Accounts: deps.Accounts, Tokens: deps.Tokens}
	videos := VideoHandler{Videos: deps.Videos}
	protect := middleware.RequireCaller(deps.Guard)

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/refresh", auth.Refresh)
	mux.Handle("GET /auth/me", protect(http.HandlerFunc(auth.Me)))

	mux.Handle("POST /videos/upload", protect(http.HandlerFunc(videos.Upload)))
	mux.Handle("POST /videos/import", protect(http.HandlerFunc(videos.Import)))
	mux.Handle("GET /videos", protect(http.HandlerFunc(videos.List)))
	mux.Handle("GET /videos/{$}", protect(http.HandlerFunc(videos.List)))
	mux.Handle("GET /videos/{id}", protect(http.HandlerFunc(videos.Get)))
	mux.Handle("PUT /videos/{id}", protect(http.HandlerFunc(videos.Update)))
	mux.Handle("DELETE /videos/{id}", protect(http.HandlerFunc(videos.Delete)))
	mux.Handle("POST /videos/{id}/metadata", protect(http.HandlerFunc(videos.Metadata)))
	mux.Handle("GET /videos/{id}/download", protect(http.HandlerFunc(videos.Download)))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts Accounts
	Tokens   TokenIssuer
	Guard    middleware.CallerResolver
	Videos   VideoService
	DB       Pinger
}
