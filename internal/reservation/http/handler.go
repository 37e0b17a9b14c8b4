package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

type ReservationHandler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Create books an office for the authenticated visitor.
// A busy office yields 503 with Retry-After; clients may retry.
func (h *ReservationHandler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	userID := auth.GetUserID(c)
	res, err := h.service.Create(c.Request.Context(), body.toDomain(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewReservationResponse(res, userID))
}

// List returns the visitor's own reservations.
func (h *ReservationHandler) List(c *gin.Context) {
	h.list(c, func(f *reservation.Filter, userID string) { f.UserID = userID })
}

// ListForHost returns reservations made on offices the caller owns.
func (h *ReservationHandler) ListForHost(c *gin.Context) {
	h.list(c, func(f *reservation.Filter, userID string) { f.HostID = userID })
}

func (h *ReservationHandler) list(c *gin.Context, scope func(*reservation.Filter, string)) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter, err := req.toFilter()
	if err != nil {
		response.Error(c, err)
		return
	}
	userID := auth.GetUserID(c)
	scope(&filter, userID)

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]ReservationResponse, len(items))
	for i, r := range items {
		out[i] = NewReservationResponse(r, userID)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(out, req.Page, req.PageSize, total))
}

func (h *ReservationHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	userID := auth.GetUserID(c)
	res, err := h.service.GetByID(c.Request.Context(), req.ID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(res, userID))
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	userID := auth.GetUserID(c)
	res, err := h.service.Cancel(c.Request.Context(), req.ID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(res, userID))
}
