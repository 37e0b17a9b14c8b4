package file

import (
	"mime/multipart"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.NotFound("file not found")
	ErrThumbnailUnavailable = apperror.NotFound("thumbnail not available for this file")
)

// Image types accepted for office photos.
var ImageTypes = []string{"image/jpeg", "image/png"}

// File represents a file object in the system
type File struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Filename      string    `json:"filename"`
	StoragePath   string    `json:"-"` // Internal path
	ThumbnailPath *string   `json:"-"` // Internal path
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	CreatedAt     time.Time `json:"created_at"`
}

// UploadInput describes a single multipart upload and the rules it must satisfy.
type UploadInput struct {
	FileHeader   *multipart.FileHeader
	UserID       string
	Field        string   // Reported on validation errors
	MaxSizeBytes int64    // 0 = no limit
	AllowedTypes []string // Sniffed MIME types; empty = allow all
}

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public URL for accessing a file's thumbnail by its ID.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}
