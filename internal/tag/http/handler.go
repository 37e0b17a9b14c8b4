package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/office-booking-backend/internal/tag"
)

type Handler struct {
	service tag.Service
}

func NewHandler(service tag.Service) *Handler {
	return &Handler{service: service}
}

// List returns every tag. The result is small and unpaginated.
func (h *Handler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TagResponse, len(tags))
	for i, t := range tags {
		items[i] = NewTagResponse(t)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateTagRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	t, err := h.service.Create(c.Request.Context(), body.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewTagResponse(t))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
