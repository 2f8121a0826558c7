package registrations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/utils"
)

// Store is the ledger persistence the service needs.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
	Update(ctx context.Context, id uuid.UUID, upd models.RegistrationUpdate) (*models.Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegisterInput is a public registration request.
type RegisterInput struct {
	EventID     uuid.UUID
	Name        string
	Email       string
	ContactInfo string
}

// Service manages attendee registrations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a registration service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Register records an attendee. It needs no identity; a second registration for the
// same (event, email) returns ErrAlreadyRegistered and leaves the first untouched.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Registration, error) {
	if in.EventID == uuid.Nil {
		return nil, models.Invalid("event_id is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.Invalid("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	reg := &models.Registration{
		EventID:     in.EventID,
		Name:        name,
		Email:       email,
		ContactInfo: strings.TrimSpace(in.ContactInfo),
	}
	if err := s.store.Create(ctx, reg); err != nil {
		if !errors.Is(err, models.ErrConflict) && !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("create registration failed", zap.Error(err), zap.String("event_id", in.EventID.String()))
		}
		return nil, err
	}
	return reg, nil
}

// ListAttendees returns every registration for the event.
func (s *Service) ListAttendees(ctx context.Context, _ models.Identity, eventID uuid.UUID) ([]models.Registration, error) {
	return s.store.ListByEvent(ctx, eventID)
}

// Get returns one registration.
func (s *Service) Get(ctx context.Context, _ models.Identity, id uuid.UUID) (*models.Registration, error) {
	return s.store.GetByID(ctx, id)
}

// Update applies a partial update to a registration.
func (s *Service) Update(ctx context.Context, _ models.Identity, id uuid.UUID, upd models.RegistrationUpdate) (*models.Registration, error) {
	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		if n == "" {
			return nil, models.Invalid("name cannot be empty")
		}
		upd.Name = &n
	}
	if upd.Email != nil {
		e, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &e
	}
	return s.store.Update(ctx, id, upd)
}

// Delete removes a registration.
func (s *Service) Delete(ctx context.Context, _ models.Identity, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", models.Invalid("email is required")
	}
	if !utils.IsEmail(email) {
		return "", models.Invalid("email is invalid")
	}
	return email, nil
}
