package office

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/tag"
)

// ImageRemover deletes a stored image and its blobs.
type ImageRemover interface {
	Delete(ctx context.Context, id string) error
}

type Service interface {
	Create(ctx context.Context, hostID string, req CreateOfficeRequest) (*Office, error)
	GetByID(ctx context.Context, id string) (*Office, error)
	List(ctx context.Context, filter Filter) ([]*Office, int, error)
	Update(ctx context.Context, id, requesterID string, req UpdateOfficeRequest) (*Office, error)
	Delete(ctx context.Context, id, requesterID string) error

	Approve(ctx context.Context, id string) (*Office, error)
	Reject(ctx context.Context, id string) (*Office, error)

	// AuthorizeImageUpload checks that requesterID may add photos to the office.
	AuthorizeImageUpload(ctx context.Context, officeID, requesterID string) error
	AttachImage(ctx context.Context, officeID, fileID string) error
	DeleteImage(ctx context.Context, officeID, imageID, requesterID string) error
}

type service struct {
	repo     Repository
	tags     tag.Service
	notifier ReviewNotifier
	images   ImageRemover
	locker   lock.Locker
}

// NewService wires the office service. locker must be the one reservations
// are created under so that removal and booking never interleave.
func NewService(repo Repository, tags tag.Service, notifier ReviewNotifier, images ImageRemover, locker lock.Locker) Service {
	return &service{repo: repo, tags: tags, notifier: notifier, images: images, locker: locker}
}

func validateOffice(o *Office) error {
	switch {
	case strings.TrimSpace(o.Title) == "":
		return ErrTitleRequired
	case strings.TrimSpace(o.Description) == "":
		return ErrDescriptionRequired
	case o.Lat < -90 || o.Lat > 90:
		return ErrInvalidLat
	case o.Lng < -180 || o.Lng > 180:
		return ErrInvalidLng
	case strings.TrimSpace(o.AddressLine1) == "":
		return ErrAddressRequired
	case o.PricePerDay < MinPricePerDay:
		return ErrPriceTooLow
	case o.MonthlyDiscount < 0 || o.MonthlyDiscount > MaxMonthlyDiscount:
		return ErrInvalidDiscount
	}
	return nil
}

func (s *service) Create(ctx context.Context, hostID string, req CreateOfficeRequest) (*Office, error) {
	o := &Office{
		UserID:          hostID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Lat:             req.Lat,
		Lng:             req.Lng,
		AddressLine1:    strings.TrimSpace(req.AddressLine1),
		AddressLine2:    req.AddressLine2,
		Hidden:          req.Hidden,
		PricePerDay:     req.PricePerDay,
		MonthlyDiscount: req.MonthlyDiscount,
		// New listings always wait for moderation.
		ApprovalStatus: ApprovalPending,
	}

	if err := validateOffice(o); err != nil {
		return nil, err
	}
	if err := s.tags.ValidateIDs(ctx, req.Tags); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, o, dedupe(req.Tags)); err != nil {
		return nil, err
	}

	s.notifyPending(ctx, o)
	return s.repo.GetByID(ctx, o.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Office, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Office, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id, requesterID string, req UpdateOfficeRequest) (*Office, error) {
	before, err := s.ownedOffice(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	after := *before
	if req.Title != nil {
		after.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		after.Description = strings.TrimSpace(*req.Description)
	}
	if req.Lat != nil {
		after.Lat = *req.Lat
	}
	if req.Lng != nil {
		after.Lng = *req.Lng
	}
	if req.AddressLine1 != nil {
		after.AddressLine1 = strings.TrimSpace(*req.AddressLine1)
	}
	if req.AddressLine2 != nil {
		after.AddressLine2 = req.AddressLine2
	}
	if req.Hidden != nil {
		after.Hidden = *req.Hidden
	}
	if req.PricePerDay != nil {
		after.PricePerDay = *req.PricePerDay
	}
	if req.MonthlyDiscount != nil {
		after.MonthlyDiscount = *req.MonthlyDiscount
	}
	if req.FeaturedImageID != nil {
		if *req.FeaturedImageID == "" {
			after.FeaturedImageID = nil
		} else {
			if !before.HasImage(*req.FeaturedImageID) {
				return nil, ErrFeaturedImageOwner
			}
			featured := *req.FeaturedImageID
			after.FeaturedImageID = &featured
		}
	}

	if err := validateOffice(&after); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		if err := s.tags.ValidateIDs(ctx, req.Tags); err != nil {
			return nil, err
		}
	}

	review := RequiresReview(before, &after)
	if review {
		after.ApprovalStatus = ApprovalPending
	}

	var tagIDs []string
	if req.Tags != nil {
		tagIDs = dedupe(req.Tags)
		if tagIDs == nil {
			tagIDs = []string{}
		}
	}

	if err := s.repo.Update(ctx, &after, tagIDs, review); err != nil {
		return nil, err
	}

	if review {
		s.notifyPending(ctx, &after)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id, requesterID string) error {
	o, err := s.ownedOffice(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if err := s.softDeleteLocked(ctx, id); err != nil {
		return err
	}

	// The listing is gone for good; its photos are not needed anymore.
	for _, img := range o.Images {
		if err := s.images.Delete(ctx, img.ID); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("office_id", id).Str("image_id", img.ID).Msg("failed to remove office image")
		}
	}
	return nil
}

// softDeleteLocked checks for active reservations and removes the office
// while holding the calendar lock, so no booking can slip in between.
func (s *service) softDeleteLocked(ctx context.Context, id string) error {
	lease, err := s.locker.Acquire(ctx, CalendarLockKey(id))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return apperror.Contention(BusyMessage, err)
		}
		return fmt.Errorf("acquire office lock failed: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("key", lease.Key()).Msg("failed to release office lock")
		}
	}()

	active, err := s.repo.HasActiveReservations(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return ErrActiveReservations
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *service) Approve(ctx context.Context, id string) (*Office, error) {
	return s.setApproval(ctx, id, ApprovalApproved)
}

func (s *service) Reject(ctx context.Context, id string) (*Office, error) {
	return s.setApproval(ctx, id, ApprovalRejected)
}

func (s *service) setApproval(ctx context.Context, id string, status ApprovalStatus) (*Office, error) {
	if err := s.repo.SetApprovalStatus(ctx, id, status); err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.ApprovalChanged(ctx, o); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("office_id", id).Msg("failed to notify host about approval change")
	}
	return o, nil
}

func (s *service) AuthorizeImageUpload(ctx context.Context, officeID, requesterID string) error {
	_, err := s.ownedOffice(ctx, officeID, requesterID)
	return err
}

func (s *service) AttachImage(ctx context.Context, officeID, fileID string) error {
	return s.repo.AddImage(ctx, officeID, fileID)
}

func (s *service) DeleteImage(ctx context.Context, officeID, imageID, requesterID string) error {
	o, err := s.ownedOffice(ctx, officeID, requesterID)
	if err != nil {
		return err
	}
	if err := checkImageRemovable(o, imageID); err != nil {
		return err
	}

	removed, err := s.repo.RemoveImage(ctx, officeID, imageID)
	if err != nil {
		return err
	}
	if !removed {
		// Lost a race with another edit; report against the current state.
		current, err := s.repo.GetByID(ctx, officeID)
		if err != nil {
			return err
		}
		if err := checkImageRemovable(current, imageID); err != nil {
			return err
		}
		return ErrImageNotFound
	}

	return s.images.Delete(ctx, imageID)
}

func checkImageRemovable(o *Office, imageID string) error {
	if !o.HasImage(imageID) {
		return ErrImageNotFound
	}
	if len(o.Images) == 1 {
		return ErrOnlyImage
	}
	if o.FeaturedImageID != nil && *o.FeaturedImageID == imageID {
		return ErrFeaturedImage
	}
	return nil
}

func (s *service) ownedOffice(ctx context.Context, id, requesterID string) (*Office, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != requesterID {
		return nil, ErrNotOwner
	}
	return o, nil
}

// notifyPending runs after the write has committed. Failures are logged,
// never returned: the office change itself succeeded.
func (s *service) notifyPending(ctx context.Context, o *Office) {
	if err := s.notifier.PendingReview(ctx, o); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("office_id", o.ID).Msg("failed to notify admins about pending office")
	}
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
