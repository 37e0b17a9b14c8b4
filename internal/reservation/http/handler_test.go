package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

const callerID = "visitor-1"

type stubService struct {
	createErr error
	listErr   error

	created []reservation.CreateReservationRequest
	filters []reservation.Filter
}

func (s *stubService) Create(_ context.Context, req reservation.CreateReservationRequest) (*reservation.Reservation, error) {
	s.created = append(s.created, req)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &reservation.Reservation{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		OfficeID:     req.OfficeID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       reservation.StatusActive,
		Price:        27000,
		WifiPassword: "secret-wifi",
	}, nil
}

func (s *stubService) Cancel(context.Context, string, string) (*reservation.Reservation, error) {
	return nil, reservation.ErrCannotCancel
}

func (s *stubService) GetByID(context.Context, string, string) (*reservation.Reservation, error) {
	return nil, reservation.ErrNotFound
}

func (s *stubService) List(_ context.Context, f reservation.Filter) ([]*reservation.Reservation, int, error) {
	s.filters = append(s.filters, f)
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return nil, 0, nil
}

func newTestRouter(svc reservation.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authenticated := func(c *gin.Context) {
		c.Set("userID", callerID)
		c.Set("scopes", []string{auth.ScopeAll})
		c.Next()
	}
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), authenticated)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Errors
}

func TestReservationHandler_CreateValidation(t *testing.T) {
	officeID := uuid.NewString()

	tests := []struct {
		name      string
		body      string
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing office",
			body:      `{"start_date":"2030-01-12","end_date":"2030-01-15"}`,
			wantField: "office_id", wantMsg: "The office id field is required.",
		},
		{
			name:      "malformed office",
			body:      `{"office_id":"abc","start_date":"2030-01-12","end_date":"2030-01-15"}`,
			wantField: "office_id", wantMsg: "Invalid office_id",
		},
		{
			name:      "missing start",
			body:      `{"office_id":"` + officeID + `","end_date":"2030-01-15"}`,
			wantField: "start_date", wantMsg: "The start date field is required.",
		},
		{
			name:      "unparsable start",
			body:      `{"office_id":"` + officeID + `","start_date":"12/01/2030","end_date":"2030-01-15"}`,
			wantField: "start_date", wantMsg: "The start date is not a valid date.",
		},
		{
			name:      "impossible end",
			body:      `{"office_id":"` + officeID + `","start_date":"2030-01-12","end_date":"2030-02-30"}`,
			wantField: "end_date", wantMsg: "The end date is not a valid date.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			w := serve(newTestRouter(svc), http.MethodPost, "/v1/reservations", tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			assert.Equal(t, map[string][]string{tt.wantField: {tt.wantMsg}}, fieldErrors(t, w))
			assert.Empty(t, svc.created, "service must not be reached")
		})
	}
}

func TestReservationHandler_CreateOutcomes(t *testing.T) {
	officeID := uuid.NewString()
	body := `{"office_id":"` + officeID + `","start_date":"2030-01-12","end_date":"2030-01-15"}`

	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantRetryAfter string
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "office busy", err: apperror.Contention("The office is busy, please try again.", lock.ErrTimeout), wantStatus: http.StatusServiceUnavailable, wantRetryAfter: "1"},
		{name: "dates taken", err: reservation.ErrDatesTaken, wantStatus: http.StatusUnprocessableEntity},
		{name: "unexpected failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{createErr: tt.err}
			w := serve(newTestRouter(svc), http.MethodPost, "/v1/reservations", body)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantRetryAfter, w.Header().Get("Retry-After"))

			require.Len(t, svc.created, 1)
			req := svc.created[0]
			assert.Equal(t, callerID, req.UserID)
			assert.Equal(t, officeID, req.OfficeID)
			assert.True(t, req.StartDate.Equal(time.Date(2030, 1, 12, 0, 0, 0, 0, time.UTC)))

			if tt.wantStatus == http.StatusCreated {
				var resp ReservationResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.NotNil(t, resp.WifiPassword)
				assert.Equal(t, "secret-wifi", *resp.WifiPassword)
				assert.Equal(t, "2030-01-15", resp.EndDate)
			}
		})
	}
}

func TestReservationHandler_ListFilters(t *testing.T) {
	officeID := uuid.NewString()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		check      func(t *testing.T, f reservation.Filter)
	}{
		{
			name:       "visitor scope with dates",
			target:     "/v1/reservations?office_id=" + officeID + "&from_date=2030-01-12&to_date=2030-01-15",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f reservation.Filter) {
				assert.Equal(t, callerID, f.UserID)
				assert.Empty(t, f.HostID)
				assert.Equal(t, officeID, f.OfficeID)
				require.NotNil(t, f.From)
				require.NotNil(t, f.To)
				assert.Equal(t, "2030-01-12", f.From.Format(daterange.Layout))
				assert.Equal(t, "2030-01-15", f.To.Format(daterange.Layout))
			},
		},
		{
			name:       "host scope",
			target:     "/v1/host/reservations?status=active",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f reservation.Filter) {
				assert.Equal(t, callerID, f.HostID)
				assert.Empty(t, f.UserID)
				assert.Equal(t, reservation.StatusActive, f.Status)
			},
		},
		{name: "unparsable from", target: "/v1/reservations?from_date=soon&to_date=2030-01-15", wantStatus: http.StatusUnprocessableEntity},
		{name: "malformed office", target: "/v1/reservations?office_id=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			w := serve(newTestRouter(svc), http.MethodGet, tt.target, "")

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check == nil {
				assert.Empty(t, svc.filters)
				return
			}
			require.Len(t, svc.filters, 1)
			tt.check(t, svc.filters[0])
		})
	}
}

func TestReservationHandler_ListRejectedFilter(t *testing.T) {
	svc := &stubService{listErr: reservation.ErrToNotAfterFrom}
	w := serve(newTestRouter(svc), http.MethodGet, "/v1/reservations?from_date=2030-01-15&to_date=2030-01-12", "")

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string][]string{"to_date": {reservation.ErrToNotAfterFrom.Message}}, fieldErrors(t, w))
}
