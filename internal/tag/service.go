package tag

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, name string) (*Tag, error)
	List(ctx context.Context) ([]*Tag, error)
	Delete(ctx context.Context, id string) error
	// ValidateIDs fails with a validation error on "tags" unless every id exists.
	ValidateIDs(ctx context.Context, ids []string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	t := &Tag{Name: name}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) List(ctx context.Context) ([]*Tag, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) ValidateIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	for _, id := range unique {
		if _, err := uuid.Parse(id); err != nil {
			return ErrInvalidTags
		}
	}

	n, err := s.repo.CountExisting(ctx, unique)
	if err != nil {
		return err
	}
	if n != len(unique) {
		return ErrInvalidTags
	}
	return nil
}
