package http

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

// CreateReservationRequest is the booking payload. Dates use YYYY-MM-DD.
type CreateReservationRequest struct {
	OfficeID  string `json:"office_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	start time.Time
	end   time.Time
}

// Validate checks presence and date format; business rules live in the service.
func (r *CreateReservationRequest) Validate() error {
	r.OfficeID = strings.TrimSpace(r.OfficeID)
	if r.OfficeID == "" {
		return apperror.Validation("office_id", "The office id field is required.")
	}
	// A malformed id names no office; it must not reach the uuid column.
	if _, err := uuid.Parse(r.OfficeID); err != nil {
		return reservation.ErrInvalidOffice
	}

	var err error
	if r.start, err = parseDate("start_date", r.StartDate); err != nil {
		return err
	}
	if r.end, err = parseDate("end_date", r.EndDate); err != nil {
		return err
	}
	return nil
}

func (r *CreateReservationRequest) toDomain(userID string) reservation.CreateReservationRequest {
	return reservation.CreateReservationRequest{
		OfficeID:  r.OfficeID,
		UserID:    userID,
		StartDate: r.start,
		EndDate:   r.end,
	}
}

// ListReservationsRequest defines query parameters for reservation listings.
type ListReservationsRequest struct {
	request.ListParams
	OfficeID string `form:"office_id" binding:"omitempty,uuid"`
	Status   string `form:"status"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

func (r *ListReservationsRequest) toFilter() (reservation.Filter, error) {
	f := reservation.Filter{
		OfficeID: r.OfficeID,
		Status:   reservation.Status(r.Status),
		Page:     r.Page,
		PageSize: r.PageSize,
	}
	if r.FromDate != "" {
		from, err := parseDate("from_date", r.FromDate)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if r.ToDate != "" {
		to, err := parseDate("to_date", r.ToDate)
		if err != nil {
			return f, err
		}
		f.To = &to
	}
	return f, nil
}

func parseDate(field, value string) (time.Time, error) {
	label := strings.ReplaceAll(field, "_", " ")
	if strings.TrimSpace(value) == "" {
		return time.Time{}, apperror.Validation(field, "The "+label+" field is required.")
	}
	t, err := daterange.Parse(value)
	if err != nil {
		return time.Time{}, apperror.Validation(field, "The "+label+" is not a valid date.")
	}
	return t, nil
}

type OfficeSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ReservationResponse struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Office       OfficeSummary `json:"office"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	Status       string        `json:"status"`
	Price        int64         `json:"price"`
	WifiPassword *string       `json:"wifi_password,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewReservationResponse renders r for viewerID. The wifi password is only
// shown to the visitor who booked.
func NewReservationResponse(r *reservation.Reservation, viewerID string) ReservationResponse {
	resp := ReservationResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Office:    OfficeSummary{ID: r.OfficeID, Title: r.OfficeTitle},
		StartDate: r.StartDate.Format(daterange.Layout),
		EndDate:   r.EndDate.Format(daterange.Layout),
		Status:    string(r.Status),
		Price:     r.Price,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if viewerID == r.UserID {
		pw := r.WifiPassword
		resp.WifiPassword = &pw
	}
	return resp
}
