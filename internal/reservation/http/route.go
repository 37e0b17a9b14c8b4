package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
)

// RegisterRoutes registers visitor and host reservation routes. All of them
// require authentication.
func RegisterRoutes(g *gin.RouterGroup, h *ReservationHandler, authMiddleware gin.HandlerFunc) {
	reservations := g.Group("/reservations")
	reservations.Use(authMiddleware)
	{
		reservations.GET("", auth.RequireScope(auth.ScopeReservationsShow), h.List)
		reservations.POST("", auth.RequireScope(auth.ScopeReservationsMake), h.Create)
		reservations.GET("/:id", auth.RequireScope(auth.ScopeReservationsShow), h.Get)
		reservations.DELETE("/:id", auth.RequireScope(auth.ScopeReservationsCancel), h.Cancel)
	}

	host := g.Group("/host")
	host.Use(authMiddleware)
	{
		host.GET("/reservations", auth.RequireScope(auth.ScopeReservationsShow), h.ListForHost)
	}
}
