package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/daterange"
)

// Scheduler runs a Job once a day at a fixed hour of a fixed location.
type Scheduler struct {
	job    *Job
	hour   int
	loc    *time.Location
	logger zerolog.Logger

	now func() time.Time
}

func NewScheduler(job *Job, hour int, loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{job: job, hour: hour, loc: loc, logger: logger, now: time.Now}
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Int("hour", s.hour).Str("timezone", s.loc.String()).Msg("reminder scheduler started")

	for {
		now := s.now()
		next := NextRun(now, s.hour, s.loc)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		case <-timer.C:
		}

		day := daterange.Today(s.now().In(s.loc))
		runCtx := s.logger.WithContext(ctx)
		if _, err := s.job.Run(runCtx, day); err != nil {
			s.logger.Error().Err(err).Msg("scheduled reminder run failed")
		}
	}
}

// NextRun returns the first instant strictly after now at hour:00 in loc.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}
