// Package reminders emails invited speakers and registered attendees ahead of upcoming events.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/metrics"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/queue"
)

// EventSource finds upcoming events and their invited speakers.
type EventSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
	SpeakersFor(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.UserRef, error)
}

// AttendeeSource lists the registrations of an event.
type AttendeeSource interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
}

// SentLog is the durable sent-marker. Claim reports false when the reminder already went out.
type SentLog interface {
	Claim(ctx context.Context, eventID uuid.UUID, recipient, emailType, subject string) (uuid.UUID, bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

// Enqueuer hands email jobs to the worker queue.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Config sets the lookahead windows and the minute past each hour a job fires.
type Config struct {
	SpeakerWindow  time.Duration
	AttendeeWindow time.Duration
	SpeakerMinute  int
	AttendeeMinute int
}

// Scheduler runs the speaker and attendee reminder jobs.
type Scheduler struct {
	events    EventSource
	attendees AttendeeSource
	sent      SentLog
	jobs      Enqueuer
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a scheduler. A nil sent log disables de-duplication, so every run that sees an
// event reminds its recipients again.
func New(events EventSource, attendees AttendeeSource, sent SentLog, jobs Enqueuer, cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		events:    events,
		attendees: attendees,
		sent:      sent,
		jobs:      jobs,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

type recipient struct {
	name  string
	email string
}

// RunSpeakerReminders reminds every invited speaker of events starting within the speaker window.
// It returns the number of reminders queued. Per-recipient failures are logged, joined and do not
// stop the batch.
func (s *Scheduler) RunSpeakerReminders(ctx context.Context) (int, error) {
	events, err := s.upcoming(ctx, s.cfg.SpeakerWindow)
	if err != nil || len(events) == 0 {
		return 0, err
	}
	ids := make([]uuid.UUID, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	speakers, err := s.events.SpeakersFor(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("resolve speakers: %w", err)
	}
	var (
		sent int
		errs []error
	)
	for _, ev := range events {
		for _, sp := range speakers[ev.ID] {
			ok, err := s.remind(ctx, ev, recipient{name: sp.Name, email: sp.Email}, models.EmailTypeSpeakerReminder, speakerContent)
			if err != nil {
				errs = append(errs, err)
			} else if ok {
				sent++
			}
		}
	}
	return sent, errors.Join(errs...)
}

// RunAttendeeReminders reminds every registered attendee of events starting within the attendee window.
func (s *Scheduler) RunAttendeeReminders(ctx context.Context) (int, error) {
	events, err := s.upcoming(ctx, s.cfg.AttendeeWindow)
	if err != nil {
		return 0, err
	}
	var (
		sent int
		errs []error
	)
	for _, ev := range events {
		regs, err := s.attendees.ListByEvent(ctx, ev.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("list registrations of %s: %w", ev.ID, err))
			continue
		}
		for _, reg := range regs {
			ok, err := s.remind(ctx, ev, recipient{name: reg.Name, email: reg.Email}, models.EmailTypeAttendeeReminder, attendeeContent)
			if err != nil {
				errs = append(errs, err)
			} else if ok {
				sent++
			}
		}
	}
	return sent, errors.Join(errs...)
}

func (s *Scheduler) upcoming(ctx context.Context, window time.Duration) ([]models.Event, error) {
	now := s.now()
	events, err := s.events.ListBetween(ctx, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

type composer func(ev models.Event, name string, window time.Duration) (content, error)

// remind queues one reminder. Recipients without an email are skipped silently.
func (s *Scheduler) remind(ctx context.Context, ev models.Event, to recipient, emailType string, compose composer) (bool, error) {
	if to.email == "" {
		return false, nil
	}
	window := s.cfg.SpeakerWindow
	if emailType == models.EmailTypeAttendeeReminder {
		window = s.cfg.AttendeeWindow
	}
	msg, err := compose(ev, to.name, window)
	if err != nil {
		return false, err
	}

	var logID *uuid.UUID
	if s.sent != nil {
		id, claimed, err := s.sent.Claim(ctx, ev.ID, to.email, emailType, msg.subject)
		if err != nil {
			return false, fmt.Errorf("claim %s for %s: %w", emailType, to.email, err)
		}
		if !claimed {
			return false, nil
		}
		logID = &id
	}

	payload := queue.EmailPayload{
		EmailType:      emailType,
		EventID:        ev.ID,
		EmailLogID:     logID,
		RecipientEmail: to.email,
		RecipientName:  to.name,
		Subject:        msg.subject,
		BodyHTML:       msg.html,
		BodyText:       msg.text,
	}
	if err := s.jobs.EnqueueEmail(ctx, payload); err != nil {
		if logID != nil {
			if relErr := s.sent.Release(ctx, *logID); relErr != nil {
				s.logger.Error("release reminder claim", zap.Error(relErr), zap.String("email_log_id", logID.String()))
			}
		}
		return false, fmt.Errorf("enqueue %s for %s: %w", emailType, to.email, err)
	}
	metrics.RemindersDispatched.WithLabelValues(emailType).Inc()
	return true, nil
}

// Run fires the speaker job at SpeakerMinute and the attendee job at AttendeeMinute past every
// hour until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.every(ctx, s.cfg.SpeakerMinute, "speaker", s.RunSpeakerReminders)
	}()
	go func() {
		defer wg.Done()
		s.every(ctx, s.cfg.AttendeeMinute, "attendee", s.RunAttendeeReminders)
	}()
	s.logger.Info("reminder scheduler started",
		zap.Int("speaker_minute", s.cfg.SpeakerMinute), zap.Int("attendee_minute", s.cfg.AttendeeMinute))
	wg.Wait()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) every(ctx context.Context, minute int, job string, run func(context.Context) (int, error)) {
	for {
		now := s.now()
		timer := time.NewTimer(nextRun(now, minute).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		start := time.Now()
		n, err := run(ctx)
		fields := []zap.Field{zap.String("job", job), zap.Int("queued", n), zap.Duration("took", time.Since(start))}
		if err != nil {
			s.logger.Error("reminder run finished with errors", append(fields, zap.Error(err))...)
			continue
		}
		s.logger.Info("reminder run finished", fields...)
	}
}

// nextRun returns the first instant strictly after now whose minute is minute and seconds are zero.
func nextRun(now time.Time, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(time.Hour)
	}
	return next
}
