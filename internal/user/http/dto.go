package http

import (
	"slices"
	"strings"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

// ListUsersRequest defines query parameters for listing users.
type ListUsersRequest struct {
	request.ListParams
	Email       string `form:"email"`
	DisplayName string `form:"display_name"`
	IsActive    *bool  `form:"is_active"`
	IsAdmin     *bool  `form:"is_system_admin"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=name email created_at"`
	SortOrder   string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   *string    `json:"display_name"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	IsActive      bool       `json:"is_active"`
	IsSystemAdmin bool       `json:"is_system_admin"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
		IsActive:      u.IsActive,
		IsSystemAdmin: u.IsSystemAdmin,
	}
}

// RegisterRequest defines the payload for user registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required,max=100"`
}

// Validate performs custom validation for RegisterRequest.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.DisplayName) == "" {
		return apperror.Validation("display_name", "The display name field is required.")
	}
	return nil
}

// LoginRequest defines the payload for user login.
// Abilities narrows the issued token; omit it for a full-access token.
type LoginRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required"`
	Abilities []string `json:"abilities"`
}

// Validate rejects abilities this server does not know.
func (r *LoginRequest) Validate() error {
	for _, a := range r.Abilities {
		if a != auth.ScopeAll && !slices.Contains(auth.KnownScopes, a) {
			return apperror.Validation("abilities", "The selected ability "+a+" is invalid.")
		}
	}
	return nil
}

// UpdateUserRequest defines fields allowed to be updated via PATCH /users/:id.
// Use pointers to distinguish between "field not sent" and "field sent as false/empty".
type UpdateUserRequest struct {
	DisplayName   *string `json:"display_name"`
	IsActive      *bool   `json:"is_active"`
	IsSystemAdmin *bool   `json:"is_system_admin"`
}

// Validate performs custom validation for UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	if r.DisplayName != nil && len(strings.TrimSpace(*r.DisplayName)) > 100 {
		return apperror.Validation("display_name", "The display name may not be greater than 100 characters.")
	}
	return nil
}

// LoginResponse returns the token and user info.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	Abilities   []string     `json:"abilities"`
	User        UserResponse `json:"user"`
}

// MeResponse returns the current user info.
type MeResponse struct {
	User UserResponse `json:"user"`
}
