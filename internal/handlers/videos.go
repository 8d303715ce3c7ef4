package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
	"github.com/vidupload/backend/internal/videos"
)

// VideoHandler provides the upload lifecycle endpoints. Every route is wrapped by the
// authentication middleware.
type VideoHandler struct {
	Videos VideoService
}

type metadataRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=5000"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=64"`
}

type updateRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=255"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=50,dive,max=64"`
	Status      *string   `json:"status" validate:"omitempty,video_status"`
}

type importRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// Upload handles POST /videos/upload?filename=.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	ticket, err := h.Videos.BeginUpload(ctx, caller.ID, r.URL.Query().Get("filename"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, ticket)
}

// Metadata handles POST /videos/{id}/metadata.
func (h VideoHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req metadataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.ConfirmMetadata(ctx, r.PathValue("id"), caller.ID, videos.Metadata{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// List handles GET /videos/ with optional skip, limit and status query parameters.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	query := r.URL.Query()
	page := repositories.Page{Limit: repositories.DefaultPageLimit}
	if page.Offset, err = intParam(query.Get("skip"), 0); err != nil || page.Offset < 0 {
		respondError(ctx, w, fmt.Errorf("%w: skip must be a non-negative integer", videos.ErrValidation))
		return
	}
	if page.Limit, err = intParam(query.Get("limit"), repositories.DefaultPageLimit); err != nil || page.Limit < 1 || page.Limit > repositories.MaxPageLimit {
		respondError(ctx, w, fmt.Errorf("%w: limit must be between 1 and %d", videos.ErrValidation, repositories.MaxPageLimit))
		return
	}

	var filter repositories.VideoFilter
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := models.VideoStatus(strings.ToLower(raw))
		filter.Status = &status
	}

	list, err := h.Videos.ListByOwner(ctx, caller.ID, filter, page)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, list)
}

// Get handles GET /videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.Get(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := videos.EnsureOwner(video, caller.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// Update handles PUT /videos/{id}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	patch := videos.Patch{Title: req.Title, Description: req.Description, Tags: req.Tags}
	if req.Status != nil {
		status := models.VideoStatus(*req.Status)
		patch.Status = &status
	}

	video, err := h.Videos.Update(ctx, r.PathValue("id"), caller.ID, patch)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// Delete handles DELETE /videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	outcome, err := h.Videos.Delete(ctx, r.PathValue("id"), caller.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message":        "Video deleted successfully",
		"object_deleted": outcome.ObjectDeleted,
	})
}

// Download handles GET /videos/{id}/download.
func (h VideoHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	ticket, err := h.Videos.DownloadURL(ctx, r.PathValue("id"), caller.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, ticket)
}

// Import handles POST /videos/import.
func (h VideoHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := callerFrom(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.BeginImport(ctx, caller.ID, req.URL)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusAccepted, video)
}

func intParam(raw string, fallback int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
