package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
// Errors is keyed by input field and only present for validation failures.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it logs the cause and defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{Error: appErr.Message}
		if appErr.Field != "" {
			resp.Errors = map[string][]string{appErr.Field: {appErr.Message}}
		}
		if appErr.Code == http.StatusServiceUnavailable {
			c.Header("Retry-After", "1")
		}
		c.JSON(appErr.Code, resp)
		return
	}

	log.Ctx(c.Request.Context()).Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// BadRequest sends a 400 for malformed bodies or query strings that fail binding.
func BadRequest(c *gin.Context, message string, err error) {
	resp := gin.H{"error": message}
	if err != nil {
		resp["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
