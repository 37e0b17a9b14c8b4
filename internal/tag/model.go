package tag

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.NotFound("tag not found")
	ErrNameTaken   = apperror.Validation("name", "The name has already been taken")
	ErrNameEmpty   = apperror.Validation("name", "The name field is required")
	ErrInvalidTags = apperror.Validation("tags", "The selected tags are invalid")
)

// Tag labels offices (e.g. "has_ac", "parking") for filtering.
type Tag struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
