package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}

		tokenStr := parts[1]

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		// Store user info into Gin context for later handlers.
		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("scopes", claims.Scopes)

		c.Next()
	}
}

// RequireScope rejects tokens that were not granted the ability.
// It MUST be used after AuthRequired.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasScope(GetScopes(c), scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "token lacks the " + scope + " ability",
			})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present and
// lets anonymous requests through untouched.
func OptionalAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			if claims, err := jwtManager.ParseAndValidate(parts[1]); err == nil {
				c.Set("userID", claims.UserID)
				c.Set("userEmail", claims.Email)
				c.Set("scopes", claims.Scopes)
			}
		}
		c.Next()
	}
}
