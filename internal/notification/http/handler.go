package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's inbox, newest first.
func (h *Handler) List(c *gin.Context) {
	var req ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	items, total, err := h.service.List(c.Request.Context(), notification.Filter{
		UserID:     auth.GetUserID(c),
		UnreadOnly: req.Unread,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]NotificationResponse, len(items))
	for i, n := range items {
		out[i] = NewNotificationResponse(n)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(out, req.Page, req.PageSize, total))
}

func (h *Handler) MarkRead(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), req.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
