package reservation

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound  = apperror.NotFound("reservation not found")
	ErrForbidden = apperror.Forbidden("This action is unauthorized.")

	ErrStartNotAfterToday = apperror.Validation("start_date", "The start date must be a date after today.")
	ErrEndNotAfterStart   = apperror.Validation("end_date", "The end date must be a date after start date.")
	ErrInvalidOffice      = apperror.Validation("office_id", "Invalid office_id")
	ErrOwnOffice          = apperror.Validation("office_id", "You cannot make a reservation on your own office")
	ErrOfficeUnavailable  = apperror.Validation("office_id", "You cannot make a reservation on a hidden office")
	ErrDatesTaken         = apperror.Validation("office_id", "You cannot make a reservation during this time")
	ErrCannotCancel       = apperror.Validation("reservation", "You cannot cancel this reservation")

	ErrInvalidStatus     = apperror.Validation("status", "The selected status is invalid.")
	ErrFromDateRequired  = apperror.Validation("from_date", "The from date field is required when to date is present.")
	ErrToDateRequired    = apperror.Validation("to_date", "The to date field is required when from date is present.")
	ErrToNotAfterFrom    = apperror.Validation("to_date", "The to date must be a date after from date.")
)

const officeBusyMessage = office.BusyMessage

// Status is the lifecycle state of a reservation. ACTIVE becomes CANCELLED
// at most once and never goes back.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

// Reservation is a visitor's booking of an office for an inclusive range of days.
type Reservation struct {
	ID           string
	UserID       string // visitor
	OfficeID     string
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	Price        int64
	WifiPassword string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// From the joined office.
	HostID      string
	OfficeTitle string
}

// CreateReservationRequest carries a visitor's booking attempt.
type CreateReservationRequest struct {
	OfficeID  string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// Filter narrows reservation listings. Exactly one of UserID (visitor view)
// or HostID (host view) is normally set. From and To select reservations
// overlapping [From, To].
type Filter struct {
	UserID   string
	HostID   string
	OfficeID string
	Status   Status
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// LockKey is the mutual exclusion key guarding an office's calendar.
func LockKey(officeID string) string {
	return office.CalendarLockKey(officeID)
}
