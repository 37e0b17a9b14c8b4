package office

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/tag"
)

const (
	MinPricePerDay     = 100
	MaxMonthlyDiscount = 100
)

var (
	ErrNotFound      = apperror.NotFound("office not found")
	ErrImageNotFound = apperror.NotFound("image not found")
	ErrNotOwner      = apperror.Forbidden("This action is unauthorized.")

	ErrTitleRequired       = apperror.Validation("title", "The title field is required.")
	ErrDescriptionRequired = apperror.Validation("description", "The description field is required.")
	ErrAddressRequired     = apperror.Validation("address_line1", "The address line1 field is required.")
	ErrInvalidLat          = apperror.Validation("lat", "The lat must be between -90 and 90.")
	ErrInvalidLng          = apperror.Validation("lng", "The lng must be between -180 and 180.")
	ErrPriceTooLow         = apperror.Validation("price_per_day", "The price per day must be at least 100.")
	ErrInvalidDiscount     = apperror.Validation("monthly_discount", "The monthly discount must be between 0 and 100.")
	ErrFeaturedImageOwner  = apperror.Validation("featured_image_id", "The featured image must belong to the office.")
	ErrActiveReservations  = apperror.Validation("office", "Cannot delete this office while it has active reservations.")
	ErrOnlyImage           = apperror.Validation("image", "Cannot delete the only image")
	ErrFeaturedImage       = apperror.Validation("image", "Cannot delete the featured image")
)

// ApprovalStatus is the moderation state of an office.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Office is a rentable workspace listed by a host.
type Office struct {
	ID              string
	UserID          string // host
	Title           string
	Description     string
	Lat             float64
	Lng             float64
	AddressLine1    string
	AddressLine2    *string
	ApprovalStatus  ApprovalStatus
	Hidden          bool
	PricePerDay     int64
	MonthlyDiscount int
	FeaturedImageID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Loaded relations.
	Tags              []tag.Tag
	Images            []Image
	ReservationsCount int      // active reservations
	Distance          *float64 // km from the listing origin, when one was given
}

// Image is an uploaded photo. Its ID is the stored file's ID.
type Image struct {
	ID        string
	OfficeID  string
	CreatedAt time.Time
}

// Bookable reports whether visitors may reserve the office.
func (o *Office) Bookable() bool {
	return o.ApprovalStatus == ApprovalApproved && !o.Hidden
}

// HasImage reports whether imageID is one of the office's photos.
func (o *Office) HasImage(imageID string) bool {
	for _, img := range o.Images {
		if img.ID == imageID {
			return true
		}
	}
	return false
}

// CalendarLockKey is the lock key serializing changes to an office's
// reservations and its own removal.
func CalendarLockKey(officeID string) string {
	return "reservations_office_" + officeID
}

// BusyMessage is reported when the office's calendar lock stays held.
const BusyMessage = "The office is busy, please try again."

// RequiresReview reports whether an edit touched the fields moderators
// approved: location and price.
func RequiresReview(before, after *Office) bool {
	return before.Lat != after.Lat ||
		before.Lng != after.Lng ||
		before.PricePerDay != after.PricePerDay
}

// Filter defines options for listing offices.
// Unless HostID equals RequesterID, only approved visible offices are listed.
type Filter struct {
	RequesterID string
	HostID      string
	VisitorID   string
	TagIDs      []string
	Lat         *float64
	Lng         *float64

	Page     int
	PageSize int
}

// CreateOfficeRequest carries data to list a new office.
type CreateOfficeRequest struct {
	Title           string
	Description     string
	Lat             float64
	Lng             float64
	AddressLine1    string
	AddressLine2    *string
	Hidden          bool
	PricePerDay     int64
	MonthlyDiscount int
	Tags            []string
}

// UpdateOfficeRequest carries data for partial updates.
// A nil Tags leaves tags untouched; an empty one clears them.
type UpdateOfficeRequest struct {
	Title           *string
	Description     *string
	Lat             *float64
	Lng             *float64
	AddressLine1    *string
	AddressLine2    *string
	Hidden          *bool
	PricePerDay     *int64
	MonthlyDiscount *int
	FeaturedImageID *string // empty string clears
	Tags            []string
}
