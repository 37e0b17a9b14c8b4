package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

// MinPasswordLength applies to registration.
const MinPasswordLength = 8

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusForbidden, "user is inactive")

	ErrEmailAlreadyUsed = apperror.Validation("email", "The email has already been taken.")
	ErrEmailRequired    = apperror.Validation("email", "The email field is required.")
	ErrPasswordTooShort = apperror.Validation("password", "The password must be at least 8 characters.")
)

// User represents a user in the system. Any user may host offices and book others'.
type User struct {
	ID            string // UUID
	Email         string
	PasswordHash  string
	DisplayName   *string
	CreatedAt     time.Time
	LastLoginAt   *time.Time
	IsActive      bool
	IsSystemAdmin bool // reviews offices submitted for approval
}

// Name returns the display name, falling back to the email.
func (u *User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Email       string
	DisplayName string
	IsActive    *bool // Use pointer to distinguish between false and nil (not set)
	IsAdmin     *bool

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// UpdateUserRequest carries admin edits; nil fields are left untouched.
type UpdateUserRequest struct {
	DisplayName   *string
	IsActive      *bool
	IsSystemAdmin *bool
}
