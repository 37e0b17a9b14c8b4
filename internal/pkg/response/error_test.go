package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   ErrorResponse
	}{
		{
			name:       "validation error carries field",
			err:        apperror.Validation("office_id", "Invalid office_id"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: ErrorResponse{
				Error:  "Invalid office_id",
				Errors: map[string][]string{"office_id": {"Invalid office_id"}},
			},
		},
		{
			name:       "wrapped contention error",
			err:        fmt.Errorf("create: %w", apperror.Contention("office is busy", errors.New("timeout"))),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   ErrorResponse{Error: "office is busy"},
		},
		{
			name:       "not found",
			err:        apperror.NotFound("reservation not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   ErrorResponse{Error: "reservation not found"},
		},
		{
			name:       "unknown error is hidden",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorResponse{Error: "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var got ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestError_ContentionSetsRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	Error(c, apperror.Contention("busy", nil))

	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
