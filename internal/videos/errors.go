package videos

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad caller input. The more specific errors below wrap it.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidFilename indicates the upload filename is empty or has a disallowed extension.
	ErrInvalidFilename = fmt.Errorf("%w: invalid filename", ErrValidation)
	// ErrInvalidStatus indicates an unknown lifecycle status.
	ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrValidation)
	// ErrInvalidSource indicates an import URL that is not an absolute http(s) URL.
	ErrInvalidSource = fmt.Errorf("%w: invalid source url", ErrValidation)

	// ErrNotFound indicates the video does not exist.
	ErrNotFound = errors.New("video not found")
	// ErrForbidden indicates the caller does not own the video.
	ErrForbidden = errors.New("video belongs to another user")
	// ErrUploadNotVerified indicates the object has not landed in the store yet.
	ErrUploadNotVerified = errors.New("upload not verified")
	// ErrImportUnavailable indicates remote imports are not configured or not accepting jobs.
	ErrImportUnavailable = errors.New("video import unavailable")
)
