package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/file"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
)

// FileUploadConfig describes one upload endpoint. Attach links the stored
// file to AttachedTo; when it fails the file is removed again.
type FileUploadConfig struct {
	FormFieldName string   // default "file"
	MaxSizeBytes  int64    // 0 = no limit
	AllowedTypes  []string // empty = allow all
	AttachedTo    string   // owning resource id, echoed in the response
	Attach        func(ctx context.Context, fileID string) error
}

// HandleFileUpload stores the multipart file, attaches it and answers 201.
func (h *Handler) HandleFileUpload(c *gin.Context, config FileUploadConfig) {
	userID := auth.GetUserID(c)

	fieldName := config.FormFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	fileHeader, err := c.FormFile(fieldName)
	if err != nil {
		response.Error(c, apperror.Validation(fieldName, "The "+fieldName+" field is required."))
		return
	}

	ctx := c.Request.Context()

	f, err := h.fileService.Upload(ctx, file.UploadInput{
		FileHeader:   fileHeader,
		UserID:       userID,
		Field:        fieldName,
		MaxSizeBytes: config.MaxSizeBytes,
		AllowedTypes: config.AllowedTypes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if config.Attach != nil {
		if err := config.Attach(ctx, f.ID); err != nil {
			if delErr := h.fileService.Delete(ctx, f.ID); delErr != nil {
				log.Ctx(ctx).Warn().Err(delErr).Str("file_id", f.ID).Msg("upload rollback failed")
			}
			response.Error(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, NewUploadResponse(f, config.AttachedTo))
}
