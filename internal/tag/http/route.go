package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers tag routes. Listing is public and cached; admin
// writes flush that cache through invalidateMiddleware.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, cacheMiddleware, invalidateMiddleware, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/tags")

	group.GET("", cacheMiddleware, h.List)

	// === Admin Routes ===
	admin := group.Group("")
	admin.Use(authMiddleware, adminMiddleware, invalidateMiddleware)
	{
		admin.POST("", h.Create)
		admin.DELETE("/:id", h.Delete)
	}
}
