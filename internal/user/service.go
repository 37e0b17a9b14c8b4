package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
)

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, int, error)
	ListAdmins(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (*User, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	now    func() time.Time
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher) Service {
	return &service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}

	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Check if email is already used.
	_, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var displayNamePtr *string
	if d := strings.TrimSpace(displayName); d != "" {
		displayNamePtr = &d
	}

	u := &User{
		Email:        cleanEmail,
		PasswordHash: hash,
		DisplayName:  displayNamePtr,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Best effort; a failed timestamp update never blocks login.
	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", u.ID).Msg("failed to update last login")
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter UserFilter) ([]*User, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ListAdmins(ctx context.Context) ([]*User, error) {
	return s.repo.ListAdmins(ctx)
}

func (s *service) Update(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		d := strings.TrimSpace(*req.DisplayName)
		u.DisplayName = &d
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.IsSystemAdmin != nil {
		u.IsSystemAdmin = *req.IsSystemAdmin
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
