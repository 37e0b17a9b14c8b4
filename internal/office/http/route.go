package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
)

// RegisterRoutes registers office and office image routes.
func RegisterRoutes(g *gin.RouterGroup, h *OfficeHandler, optionalAuth, authMiddleware, adminMiddleware gin.HandlerFunc) {
	offices := g.Group("/offices")

	// Public Routes
	offices.GET("", optionalAuth, h.List)
	offices.GET("/:id", h.Get)

	// Host Routes
	host := offices.Group("")
	host.Use(authMiddleware)
	{
		host.POST("", auth.RequireScope(auth.ScopeOfficeCreate), h.Create)
		host.PUT("/:id", auth.RequireScope(auth.ScopeOfficeUpdate), h.Update)
		host.PATCH("/:id", auth.RequireScope(auth.ScopeOfficeUpdate), h.Update)
		host.DELETE("/:id", auth.RequireScope(auth.ScopeOfficeDelete), h.Delete)

		host.POST("/:id/images", auth.RequireScope(auth.ScopeOfficeUpdate), h.UploadImage)
		host.DELETE("/:id/images/:image_id", auth.RequireScope(auth.ScopeOfficeUpdate), h.DeleteImage)
	}

	// Admin Routes
	admin := offices.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/:id/approve", h.Approve)
		admin.POST("/:id/reject", h.Reject)
	}
}
