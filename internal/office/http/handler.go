package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/file"
	fileHttp "github.com/nekogravitycat/office-booking-backend/internal/file/http"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
)

type OfficeHandler struct {
	service       office.Service
	files         *fileHttp.Handler
	imageMaxBytes int64
}

func NewHandler(service office.Service, files *fileHttp.Handler, imageMaxBytes int64) *OfficeHandler {
	return &OfficeHandler{service: service, files: files, imageMaxBytes: imageMaxBytes}
}

// List browses offices. Anonymous callers see approved, visible offices only.
func (h *OfficeHandler) List(c *gin.Context) {
	var req ListOfficesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	offices, total, err := h.service.List(c.Request.Context(), office.Filter{
		RequesterID: auth.GetUserID(c),
		HostID:      req.HostID,
		VisitorID:   req.VisitorID,
		TagIDs:      req.Tags,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OfficeResponse, len(offices))
	for i, o := range offices {
		items[i] = NewOfficeResponse(o)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *OfficeHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOfficeResponse(o))
}

func (h *OfficeHandler) Create(c *gin.Context) {
	var body CreateOfficeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), body.toDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewOfficeResponse(o))
}

func (h *OfficeHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateOfficeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), uri.ID, auth.GetUserID(c), body.toDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOfficeResponse(o))
}

func (h *OfficeHandler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OfficeHandler) Approve(c *gin.Context) {
	h.moderate(c, h.service.Approve)
}

func (h *OfficeHandler) Reject(c *gin.Context) {
	h.moderate(c, h.service.Reject)
}

func (h *OfficeHandler) moderate(c *gin.Context, decide func(ctx context.Context, id string) (*office.Office, error)) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	o, err := decide(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOfficeResponse(o))
}

// UploadImage stores a jpg/png photo and attaches it to the office.
func (h *OfficeHandler) UploadImage(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.AuthorizeImageUpload(c.Request.Context(), req.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	h.files.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "image",
		MaxSizeBytes:  h.imageMaxBytes,
		AllowedTypes:  file.ImageTypes,
		AttachedTo:    req.ID,
		Attach: func(ctx context.Context, fileID string) error {
			return h.service.AttachImage(ctx, req.ID, fileID)
		},
	})
}

func (h *OfficeHandler) DeleteImage(c *gin.Context) {
	var uri ImageURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), uri.ID, uri.ImageID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
