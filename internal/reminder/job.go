// Package reminder notifies visitors and hosts about reservations that start today.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

// DueLister finds ACTIVE reservations starting on a given day.
type DueLister interface {
	ListStartingOn(ctx context.Context, day time.Time) ([]*reservation.Reservation, error)
}

// Job sends the "starting today" notifications for one day.
type Job struct {
	reservations DueLister
	dispatcher   notification.Dispatcher
}

func NewJob(reservations DueLister, dispatcher notification.Dispatcher) *Job {
	return &Job{reservations: reservations, dispatcher: dispatcher}
}

// Result summarises one run.
type Result struct {
	Due    int
	Failed int
}

// Run notifies the visitor and the host of every ACTIVE reservation whose
// first day is day. A failed notification is logged and does not stop the run.
func (j *Job) Run(ctx context.Context, day time.Time) (Result, error) {
	day = daterange.Day(day)
	logger := log.Ctx(ctx).With().Str("day", day.Format(daterange.Layout)).Logger()

	due, err := j.reservations.ListStartingOn(ctx, day)
	if err != nil {
		return Result{}, fmt.Errorf("list due reservations failed: %w", err)
	}

	res := Result{Due: len(due)}
	for _, r := range due {
		payload := startingPayload{
			ReservationID: r.ID,
			OfficeID:      r.OfficeID,
			OfficeTitle:   r.OfficeTitle,
			StartDate:     r.StartDate.Format(daterange.Layout),
			EndDate:       r.EndDate.Format(daterange.Layout),
		}
		if err := j.dispatcher.Notify(ctx, []string{r.UserID}, notification.KindUserReservationStarting, payload); err != nil {
			res.Failed++
			logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to notify visitor")
		}
		if err := j.dispatcher.Notify(ctx, []string{r.HostID}, notification.KindHostReservationStarting, payload); err != nil {
			res.Failed++
			logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to notify host")
		}
	}

	logger.Info().Int("due", res.Due).Int("failed", res.Failed).Msg("reservation reminders sent")
	return res, nil
}

type startingPayload struct {
	ReservationID string `json:"reservation_id"`
	OfficeID      string `json:"office_id"`
	OfficeTitle   string `json:"office_title"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}
