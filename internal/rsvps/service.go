package rsvps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/models"
)

// Store is the ledger persistence the service needs.
type Store interface {
	Upsert(ctx context.Context, eventID, speakerID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVPEntry, error)
}

// Service records RSVPs.
type Service struct {
	store Store
}

// NewService creates an RSVP service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submit records the caller's status for the event, replacing any earlier answer.
func (s *Service) Submit(ctx context.Context, caller models.Identity, eventID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error) {
	if !status.Valid() {
		return nil, models.Invalid("status must be one of yes, no, maybe")
	}
	v, err := s.store.Upsert(ctx, eventID, caller.ID, status)
	if err != nil {
		return nil, fmt.Errorf("submit rsvp: %w", err)
	}
	return v, nil
}

// ListForEvent returns every RSVP on the event.
func (s *Service) ListForEvent(ctx context.Context, _ models.Identity, eventID uuid.UUID) ([]models.RSVPEntry, error) {
	list, err := s.store.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	return list, nil
}
