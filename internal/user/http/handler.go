package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

type UserHandler struct {
	userService user.Service
	jwtManager  *auth.JWTManager
}

func NewHandler(userService user.Service, jwtManager *auth.JWTManager) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// Register creates an account. Every account may both host and book.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, MeResponse{User: NewUserResponse(u)})
}

// Login authenticates a user using email and password.
// On success, it returns a JWT access token limited to the requested abilities.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Do not reveal which condition failed.
		if errors.Is(err, user.ErrInactiveUser) || errors.Is(err, user.ErrNotFound) {
			err = user.ErrInvalidCredentials
		}
		response.Error(c, err)
		return
	}

	scopes := auth.NormalizeScopes(req.Abilities)
	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.Email, scopes)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		Abilities:   scopes,
		User:        NewUserResponse(u),
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// List retrieves a paginated list of users with optional filtering.
// Access Control: System Admin only.
func (h *UserHandler) List(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	users, total, err := h.userService.List(c.Request.Context(), user.UserFilter{
		Page:        req.Page,
		PageSize:    req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   strings.ToUpper(req.SortOrder),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		IsActive:    req.IsActive,
		IsAdmin:     req.IsAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = NewUserResponse(u)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Get retrieves a specific user by their ID.
// Access Control: System Admin only.
func (h *UserHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// Update edits a user, including the admin flag that decides who reviews
// submitted offices.
// Access Control: System Admin only.
func (h *UserHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Update(c.Request.Context(), uri.ID, user.UpdateUserRequest{
		DisplayName:   body.DisplayName,
		IsActive:      body.IsActive,
		IsSystemAdmin: body.IsSystemAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
}

// Delete deactivates a user.
// Access Control: System Admin only.
func (h *UserHandler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
