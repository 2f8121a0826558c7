package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/models"
)

// Store is the event persistence the service needs.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Update(ctx context.Context, id uuid.UUID, upd models.EventUpdate) (*models.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SpeakersFor(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.UserRef, error)
}

// RSVPLister resolves RSVP rows for a batch of events.
type RSVPLister interface {
	ListForEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.RSVPEntry, error)
}

// CreateInput is a validated-at-the-service create request.
type CreateInput struct {
	Title       string
	Description string
	DateTime    time.Time
	MeetingLink string
	SpeakerIDs  []uuid.UUID
	RSVPState   models.RSVPState
}

// Service orchestrates event reads and writes.
type Service struct {
	store  Store
	rsvps  RSVPLister
	links  MeetingLinkProvider
	logger *zap.Logger
}

// NewService creates an event service.
func NewService(store Store, rsvps RSVPLister, links MeetingLinkProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, rsvps: rsvps, links: links, logger: logger}
}

// Create persists a new event. Only speakers may create events.
func (s *Service) Create(ctx context.Context, caller models.Identity, in CreateInput) (*models.EventDetail, error) {
	if err := caller.Require(models.RoleSpeaker); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, models.Invalid("title is required")
	}
	if in.DateTime.IsZero() {
		return nil, models.Invalid("date_time is required")
	}
	speakers, err := normalizeSpeakers(in.SpeakerIDs)
	if err != nil {
		return nil, err
	}
	if in.RSVPState == "" {
		in.RSVPState = models.RSVPOpen
	}
	if !in.RSVPState.Valid() {
		return nil, models.Invalid("rsvp_state must be open or closed")
	}

	link := strings.TrimSpace(in.MeetingLink)
	if link == "" && s.links != nil {
		link, err = s.links.NewLink(ctx, in.Title, in.DateTime)
		if err != nil {
			return nil, fmt.Errorf("meeting link: %w", err)
		}
	}

	creator := caller.ID
	e := &models.Event{
		Title:       in.Title,
		Description: in.Description,
		DateTime:    in.DateTime.UTC(),
		MeetingLink: link,
		SpeakerIDs:  speakers,
		RSVPState:   in.RSVPState,
		CreatedBy:   &creator,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", zap.String("event_id", e.ID.String()), zap.Int("speakers", len(speakers)))
	return s.detail(ctx, e, false)
}

// List returns every event with its speakers and RSVP rows.
func (s *Service) List(ctx context.Context, _ models.Identity) ([]models.EventDetail, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	ids := make([]uuid.UUID, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	speakers, err := s.store.SpeakersFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve speakers: %w", err)
	}
	rsvps, err := s.rsvps.ListForEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve rsvps: %w", err)
	}
	out := make([]models.EventDetail, len(list))
	for i, e := range list {
		out[i] = models.EventDetail{Event: e, Speakers: orEmpty(speakers[e.ID]), RSVPs: rsvps[e.ID]}
	}
	return out, nil
}

// Get returns one event. Speakers also see the RSVP rows; attendees do not.
func (s *Service) Get(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.EventDetail, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, e, caller.Role == models.RoleSpeaker)
}

// UpdateInput carries a partial update. A nil SpeakerIDs leaves the invitation list unchanged.
type UpdateInput = models.EventUpdate

// Update applies a partial update. Any authenticated caller may update any event.
func (s *Service) Update(ctx context.Context, _ models.Identity, id uuid.UUID, upd UpdateInput) (*models.EventDetail, error) {
	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		if t == "" {
			return nil, models.Invalid("title cannot be empty")
		}
		upd.Title = &t
	}
	if upd.RSVPState != nil && !upd.RSVPState.Valid() {
		return nil, models.Invalid("rsvp_state must be open or closed")
	}
	if upd.DateTime != nil {
		utc := upd.DateTime.UTC()
		upd.DateTime = &utc
	}
	if upd.SpeakerIDs != nil {
		speakers, err := normalizeSpeakers(upd.SpeakerIDs)
		if err != nil {
			return nil, err
		}
		upd.SpeakerIDs = speakers
	}
	e, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, e, false)
}

// Delete removes an event and everything attached to it.
func (s *Service) Delete(ctx context.Context, _ models.Identity, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("event deleted", zap.String("event_id", id.String()))
	return nil
}

func (s *Service) detail(ctx context.Context, e *models.Event, withRSVPs bool) (*models.EventDetail, error) {
	ids := []uuid.UUID{e.ID}
	speakers, err := s.store.SpeakersFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve speakers: %w", err)
	}
	d := &models.EventDetail{Event: *e, Speakers: orEmpty(speakers[e.ID])}
	if withRSVPs {
		rsvps, err := s.rsvps.ListForEvents(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve rsvps: %w", err)
		}
		d.RSVPs = rsvps[e.ID]
	}
	return d, nil
}

// normalizeSpeakers rejects an empty list and drops duplicates, keeping first-seen order.
func normalizeSpeakers(ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, models.Invalid("speaker ids must be valid")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, models.Invalid("at least one invited speaker is required")
	}
	return out, nil
}

func orEmpty(refs []models.UserRef) []models.UserRef {
	if refs == nil {
		return []models.UserRef{}
	}
	return refs
}
