package reservation

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/metrics"
	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/daterange"
)

const wifiPasswordLength = 16

// OfficeGetter is the slice of the office service the booking flow needs.
type OfficeGetter interface {
	GetByID(ctx context.Context, id string) (*office.Office, error)
}

type Service interface {
	Create(ctx context.Context, req CreateReservationRequest) (*Reservation, error)
	Cancel(ctx context.Context, id, userID string) (*Reservation, error)
	GetByID(ctx context.Context, id, requesterID string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
}

type service struct {
	repo       Repository
	offices    OfficeGetter
	locker     lock.Locker
	dispatcher notification.Dispatcher
	loc        *time.Location

	now         func() time.Time
	newPassword func() (string, error)
}

func NewService(repo Repository, offices OfficeGetter, locker lock.Locker, dispatcher notification.Dispatcher, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:        repo,
		offices:     offices,
		locker:      locker,
		dispatcher:  dispatcher,
		loc:         loc,
		now:         time.Now,
		newPassword: randomPassword,
	}
}

func (s *service) today() time.Time {
	return daterange.Today(s.now().In(s.loc))
}

// Create books an office for [StartDate, EndDate]. Validation that does not
// depend on other reservations runs first. The availability check, the price
// and the insert then run under the office's lock so that two overlapping
// requests cannot both pass the check.
func (s *service) Create(ctx context.Context, req CreateReservationRequest) (*Reservation, error) {
	logger := log.Ctx(ctx).With().Str("office_id", req.OfficeID).Str("user_id", req.UserID).Logger()

	o, err := s.validateCreate(ctx, req)
	if err != nil {
		if apperror.IsValidation(err) {
			metrics.IncReservation(metrics.OutcomeRejected)
		} else {
			metrics.IncReservation(metrics.OutcomeError)
		}
		return nil, err
	}

	started := time.Now()
	lease, err := s.locker.Acquire(ctx, LockKey(o.ID))
	metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			metrics.IncReservation(metrics.OutcomeLockTimeout)
			logger.Warn().Err(err).Msg("office lock wait exceeded")
			return nil, apperror.Contention(officeBusyMessage, err)
		}
		metrics.IncReservation(metrics.OutcomeError)
		return nil, fmt.Errorf("acquire office lock failed: %w", err)
	}

	res, err := s.createLocked(ctx, lease, o, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDatesTaken):
			metrics.IncReservation(metrics.OutcomeConflict)
		case apperror.IsValidation(err):
			metrics.IncReservation(metrics.OutcomeRejected)
		default:
			metrics.IncReservation(metrics.OutcomeError)
		}
		return nil, err
	}
	metrics.IncReservation(metrics.OutcomeCreated)

	// Notifications go out after the lock is released.
	payload := newReservationPayload(res)
	if err := s.dispatcher.Notify(ctx, []string{res.UserID}, notification.KindNewUserReservation, payload); err != nil {
		logger.Error().Err(err).Str("reservation_id", res.ID).Msg("failed to notify visitor")
	}
	if err := s.dispatcher.Notify(ctx, []string{o.UserID}, notification.KindNewHostReservation, payload); err != nil {
		logger.Error().Err(err).Str("reservation_id", res.ID).Msg("failed to notify host")
	}

	return res, nil
}

func (s *service) validateCreate(ctx context.Context, req CreateReservationRequest) (*office.Office, error) {
	start, end := daterange.Day(req.StartDate), daterange.Day(req.EndDate)
	if !start.After(s.today()) {
		return nil, ErrStartNotAfterToday
	}
	if !end.After(start) {
		return nil, ErrEndNotAfterStart
	}

	o, err := s.offices.GetByID(ctx, req.OfficeID)
	if err != nil {
		if errors.Is(err, office.ErrNotFound) {
			return nil, ErrInvalidOffice
		}
		return nil, fmt.Errorf("load office failed: %w", err)
	}
	if o.UserID == req.UserID {
		return nil, ErrOwnOffice
	}
	if !o.Bookable() {
		return nil, ErrOfficeUnavailable
	}
	return o, nil
}

func (s *service) createLocked(ctx context.Context, lease lock.Lease, o *office.Office, req CreateReservationRequest) (*Reservation, error) {
	defer s.release(context.WithoutCancel(ctx), lease)

	// The office may have been removed, hidden or sent back to review while
	// this request waited for the lock.
	o, err := s.offices.GetByID(ctx, o.ID)
	if err != nil {
		if errors.Is(err, office.ErrNotFound) {
			return nil, ErrInvalidOffice
		}
		return nil, fmt.Errorf("reload office failed: %w", err)
	}
	if !o.Bookable() {
		return nil, ErrOfficeUnavailable
	}

	span := daterange.New(req.StartDate, req.EndDate)

	taken, err := s.repo.HasActiveOverlap(ctx, o.ID, span.Start, span.End)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDatesTaken
	}

	password, err := s.newPassword()
	if err != nil {
		return nil, fmt.Errorf("generate wifi password failed: %w", err)
	}

	res := &Reservation{
		UserID:       req.UserID,
		OfficeID:     o.ID,
		StartDate:    span.Start,
		EndDate:      span.End,
		Status:       StatusActive,
		Price:        CalculatePrice(span.Days(), o.PricePerDay, o.MonthlyDiscount),
		WifiPassword: password,
		HostID:       o.UserID,
		OfficeTitle:  o.Title,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// release gives the lease back. A lost lease means the critical section
// outlived the TTL and another request may have run concurrently.
func (s *service) release(ctx context.Context, lease lock.Lease) {
	err := lease.Release(ctx)
	if err == nil {
		return
	}
	logger := log.Ctx(ctx)
	if errors.Is(err, lock.ErrLeaseLost) {
		metrics.IncLeaseLost()
		logger.Error().Err(err).Str("key", lease.Key()).Msg("office lock expired before release")
		return
	}
	logger.Warn().Err(err).Str("key", lease.Key()).Msg("failed to release office lock")
}

// Cancel is a single conditional update, so it needs no lock: only an ACTIVE
// reservation of the caller that has not started yet can flip.
func (s *service) Cancel(ctx context.Context, id, userID string) (*Reservation, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	res, err := s.repo.Cancel(ctx, id, userID, s.today())
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("reservation_id", id).Str("user_id", userID).Msg("reservation cancelled")
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id, requesterID string) (*Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != requesterID && res.HostID != requesterID {
		return nil, ErrForbidden
	}
	return res, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	switch {
	case filter.From != nil && filter.To == nil:
		return nil, 0, ErrToDateRequired
	case filter.From == nil && filter.To != nil:
		return nil, 0, ErrFromDateRequired
	case filter.From != nil && !daterange.Day(*filter.To).After(daterange.Day(*filter.From)):
		return nil, 0, ErrToNotAfterFrom
	}
	return s.repo.List(ctx, filter)
}

type reservationPayload struct {
	ReservationID string `json:"reservation_id"`
	OfficeID      string `json:"office_id"`
	OfficeTitle   string `json:"office_title"`
	UserID        string `json:"user_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Price         int64  `json:"price"`
}

func newReservationPayload(r *Reservation) reservationPayload {
	return reservationPayload{
		ReservationID: r.ID,
		OfficeID:      r.OfficeID,
		OfficeTitle:   r.OfficeTitle,
		UserID:        r.UserID,
		StartDate:     r.StartDate.Format(daterange.Layout),
		EndDate:       r.EndDate.Format(daterange.Layout),
		Price:         r.Price,
	}
}

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomPassword() (string, error) {
	buf := make([]byte, wifiPasswordLength)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
