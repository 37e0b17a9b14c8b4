package notification

import (
	"context"
	"time"
)

// Service exposes a user's stored notifications.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Notification, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID, s.now().UTC())
}
