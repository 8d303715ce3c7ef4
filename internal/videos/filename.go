package videos

import (
	"fmt"
	"path"
	"strings"
)

const objectKeyPrefix = "videos/"

var allowedExtensions = map[string]struct{}{
	"mp4":  {},
	"avi":  {},
	"mov":  {},
	"mkv":  {},
	"wmv":  {},
	"flv":  {},
	"webm": {},
}

// ValidateFilename returns the extension of filename, in its original case, when it is
// allowed. The suffix match ignores case but not surrounding whitespace; the content is never
// inspected.
func ValidateFilename(filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("%w: filename is required", ErrInvalidFilename)
	}
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if _, ok := allowedExtensions[strings.ToLower(ext)]; !ok {
		return "", fmt.Errorf("%w: extension %q is not allowed", ErrInvalidFilename, ext)
	}
	return ext, nil
}

// ObjectKey builds the store key for an object identified by id.
func ObjectKey(id, ext string) string {
	return objectKeyPrefix + id + "." + ext
}
