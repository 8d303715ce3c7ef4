package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vidupload/backend/internal/auth"
	"github.com/vidupload/backend/internal/logging"
	"github.com/vidupload/backend/internal/models"
	"github.com/vidupload/backend/internal/repositories"
	"github.com/vidupload/backend/internal/videos"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("video_status", func(fl validator.FieldLevel) bool {
		return models.VideoStatus(fl.Field().String()).Valid()
	})
	return v
}

// decodeJSON reads a size-limited JSON body into dst and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", videos.ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", videos.ErrValidation, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps err onto a status code. Unclassified errors are upstream failures: the
// cause is logged and the client sees a generic message.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("upstream failure", slog.Any("error", err))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, videos.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, videos.ErrUploadNotVerified):
		return http.StatusBadRequest, "upload not verified: object not found in storage"
	case errors.Is(err, auth.ErrAccountExists), errors.Is(err, auth.ErrInvalidAccount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repositories.ErrInvalid):
		return http.StatusBadRequest, "invalid record"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "incorrect username or password"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "could not validate credentials"
	case errors.Is(err, videos.ErrForbidden):
		return http.StatusForbidden, "not enough permissions"
	case errors.Is(err, videos.ErrNotFound):
		return http.StatusNotFound, "video not found"
	case errors.Is(err, videos.ErrImportUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// callerFrom returns the user stored by the authentication middleware.
func callerFrom(r *http.Request) (models.User, error) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return models.User{}, auth.ErrUnauthenticated
	}
	return caller, nil
}
