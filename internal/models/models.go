package models

import (
	"strings"
	"time"
)

// User represents an account able to upload videos.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// VideoStatus tracks where a video is in its upload lifecycle.
type VideoStatus string

const (
	VideoStatusUploading  VideoStatus = "uploading"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Valid reports whether s is one of the declared lifecycle states.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusUploading, VideoStatusProcessing, VideoStatusCompleted, VideoStatusFailed:
		return true
	}
	return false
}

// Video is one upload lifecycle instance. ObjectPath and OwnerID are fixed at creation.
type Video struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Tags            string      `json:"tags"`
	ObjectPath      string      `json:"file_path"`
	FileSize        *int64      `json:"file_size"`
	DurationSeconds *int        `json:"duration"`
	Status          VideoStatus `json:"status"`
	OwnerID         string      `json:"owner_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       *time.Time  `json:"updated_at"`
}

// TagList splits the stored tag string back into its entries.
func (v Video) TagList() []string {
	return SplitTags(v.Tags)
}

const tagSeparator = ","

// JoinTags serialises a tag list into the stored delimited form, dropping blank entries.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		cleaned = append(cleaned, tag)
	}
	return strings.Join(cleaned, tagSeparator)
}

// SplitTags is the inverse of JoinTags.
func SplitTags(stored string) []string {
	if strings.TrimSpace(stored) == "" {
		return nil
	}
	parts := strings.Split(stored, tagSeparator)
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// AccessToken is the bearer credential handed to clients.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ObjectInfo describes an object held by the object store.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}
