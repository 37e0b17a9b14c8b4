package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/file"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
)

type Handler struct {
	fileService file.Service
}

func NewHandler(fileService file.Service) *Handler {
	return &Handler{
		fileService: fileService,
	}
}

// ServeFile serves the file content by ID
func (h *Handler) ServeFile(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid file id", err)
		return
	}

	stream, fileInfo, err := h.fileService.Download(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", fileInfo.ContentType)
	c.Header("Content-Disposition", "inline; filename=\""+fileInfo.Filename+"\"")
	c.Header("Cache-Control", "public, max-age=86400")
	h.stream(c, stream)
}

// ServeThumbnail serves the thumbnail image by file ID
func (h *Handler) ServeThumbnail(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid file id", err)
		return
	}

	stream, fileInfo, err := h.fileService.DownloadThumbnail(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// Thumbnails are always JPEG
	c.Header("Content-Type", "image/jpeg")
	c.Header("Content-Disposition", "inline; filename=\""+fileInfo.Filename+"_thumb.jpg\"")
	c.Header("Cache-Control", "public, max-age=86400")
	h.stream(c, stream)
}

func (h *Handler) stream(c *gin.Context, src io.Reader) {
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, src); err != nil {
		// Headers are already sent.
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("file stream interrupted")
	}
}
