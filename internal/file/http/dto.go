package http

import "github.com/nekogravitycat/office-booking-backend/internal/file"

// UploadResponse describes a stored upload and the resource it now belongs to.
type UploadResponse struct {
	ID           string  `json:"id"`
	AttachedTo   string  `json:"attached_to,omitempty"`
	Filename     string  `json:"filename"`
	ContentType  string  `json:"content_type"`
	Size         int64   `json:"size"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

func NewUploadResponse(f *file.File, attachedTo string) UploadResponse {
	resp := UploadResponse{
		ID:          f.ID,
		AttachedTo:  attachedTo,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        f.Size,
		URL:         file.FileURL(f.ID),
	}
	if f.ThumbnailPath != nil {
		thumb := file.ThumbnailURL(f.ID)
		resp.ThumbnailURL = &thumb
	}
	return resp
}
