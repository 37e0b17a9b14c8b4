package http

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/file"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
)

// ListOfficesRequest defines query parameters for browsing offices.
type ListOfficesRequest struct {
	request.ListParams
	HostID    string   `form:"host_id" binding:"omitempty,uuid"`
	VisitorID string   `form:"visitor_id" binding:"omitempty,uuid"`
	Tags      []string `form:"tags" binding:"omitempty,dive,uuid"`
	Lat       *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Lng       *float64 `form:"lng" binding:"omitempty,min=-180,max=180"`
}

// Validate requires lat and lng together.
func (r *ListOfficesRequest) Validate() error {
	if (r.Lat == nil) != (r.Lng == nil) {
		if r.Lat == nil {
			return apperror.Validation("lat", "The lat field is required when lng is present.")
		}
		return apperror.Validation("lng", "The lng field is required when lat is present.")
	}
	return nil
}

// CreateOfficeRequest is the payload for listing a new office.
// Value rules live in the service so that they answer with 422.
type CreateOfficeRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	AddressLine1    string   `json:"address_line1"`
	AddressLine2    *string  `json:"address_line2"`
	Hidden          bool     `json:"hidden"`
	PricePerDay     *int64   `json:"price_per_day"`
	MonthlyDiscount int      `json:"monthly_discount"`
	Tags            []string `json:"tags"`
}

// Validate checks presence of the numeric fields JSON cannot tell apart from zero.
func (r *CreateOfficeRequest) Validate() error {
	switch {
	case r.Lat == nil:
		return apperror.Validation("lat", "The lat field is required.")
	case r.Lng == nil:
		return apperror.Validation("lng", "The lng field is required.")
	case r.PricePerDay == nil:
		return apperror.Validation("price_per_day", "The price per day field is required.")
	}
	return nil
}

func (r *CreateOfficeRequest) toDomain() office.CreateOfficeRequest {
	return office.CreateOfficeRequest{
		Title:           r.Title,
		Description:     r.Description,
		Lat:             *r.Lat,
		Lng:             *r.Lng,
		AddressLine1:    r.AddressLine1,
		AddressLine2:    r.AddressLine2,
		Hidden:          r.Hidden,
		PricePerDay:     *r.PricePerDay,
		MonthlyDiscount: r.MonthlyDiscount,
		Tags:            r.Tags,
	}
}

// UpdateOfficeRequest defines fields allowed to be updated.
// Use pointers to distinguish between "field not sent" and "field sent as false/empty".
type UpdateOfficeRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	AddressLine1    *string  `json:"address_line1"`
	AddressLine2    *string  `json:"address_line2"`
	Hidden          *bool    `json:"hidden"`
	PricePerDay     *int64   `json:"price_per_day"`
	MonthlyDiscount *int     `json:"monthly_discount"`
	FeaturedImageID *string  `json:"featured_image_id"`
	Tags            []string `json:"tags"`
}

func (r *UpdateOfficeRequest) Validate() error {
	return nil
}

func (r *UpdateOfficeRequest) toDomain() office.UpdateOfficeRequest {
	return office.UpdateOfficeRequest{
		Title:           r.Title,
		Description:     r.Description,
		Lat:             r.Lat,
		Lng:             r.Lng,
		AddressLine1:    r.AddressLine1,
		AddressLine2:    r.AddressLine2,
		Hidden:          r.Hidden,
		PricePerDay:     r.PricePerDay,
		MonthlyDiscount: r.MonthlyDiscount,
		FeaturedImageID: r.FeaturedImageID,
		Tags:            r.Tags,
	}
}

type ImageURI struct {
	ID      string `uri:"id" binding:"required,uuid"`
	ImageID string `uri:"image_id" binding:"required,uuid"`
}

type TagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ImageResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type OfficeResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Lat               float64         `json:"lat"`
	Lng               float64         `json:"lng"`
	AddressLine1      string          `json:"address_line1"`
	AddressLine2      *string         `json:"address_line2"`
	ApprovalStatus    string          `json:"approval_status"`
	Hidden            bool            `json:"hidden"`
	PricePerDay       int64           `json:"price_per_day"`
	MonthlyDiscount   int             `json:"monthly_discount"`
	FeaturedImageID   *string         `json:"featured_image_id"`
	ReservationsCount int             `json:"reservations_count"`
	Distance          *float64        `json:"distance,omitempty"`
	Tags              []TagResponse   `json:"tags"`
	Images            []ImageResponse `json:"images"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewOfficeResponse(o *office.Office) OfficeResponse {
	tags := make([]TagResponse, len(o.Tags))
	for i, t := range o.Tags {
		tags[i] = TagResponse{ID: t.ID, Name: t.Name}
	}
	images := make([]ImageResponse, len(o.Images))
	for i, img := range o.Images {
		images[i] = ImageResponse{
			ID:           img.ID,
			URL:          file.FileURL(img.ID),
			ThumbnailURL: file.ThumbnailURL(img.ID),
		}
	}

	return OfficeResponse{
		ID:                o.ID,
		UserID:            o.UserID,
		Title:             o.Title,
		Description:       o.Description,
		Lat:               o.Lat,
		Lng:               o.Lng,
		AddressLine1:      o.AddressLine1,
		AddressLine2:      o.AddressLine2,
		ApprovalStatus:    string(o.ApprovalStatus),
		Hidden:            o.Hidden,
		PricePerDay:       o.PricePerDay,
		MonthlyDiscount:   o.MonthlyDiscount,
		FeaturedImageID:   o.FeaturedImageID,
		ReservationsCount: o.ReservationsCount,
		Distance:          o.Distance,
		Tags:              tags,
		Images:            images,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}
