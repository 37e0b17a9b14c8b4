package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

// RequireSystemAdmin ensures the authenticated user is an active system admin.
// It MUST be used after auth.AuthRequired middleware.
func RequireSystemAdmin(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		u, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			log.Ctx(c.Request.Context()).Warn().Err(err).Str("user_id", userID).Msg("admin check failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !u.IsSystemAdmin || !u.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: system admin access required"})
			return
		}

		c.Next()
	}
}
