package http

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/tag"
)

type TagResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTagResponse(t *tag.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

type CreateTagRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// Validate performs custom validation for CreateTagRequest.
func (r *CreateTagRequest) Validate() error {
	return nil
}
