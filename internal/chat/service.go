package chat

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/metrics"
	"github.com/speakerhub/backend/internal/models"
)

const (
	// MaxTextLength bounds a single chat line, in characters.
	MaxTextLength = 2000
	// MaxSenderLength bounds the display name.
	MaxSenderLength = 100
	// EventMessage is the server-to-client event carrying a persisted message.
	EventMessage = "message"

	// roomLockStripes bounds the lock table; rooms sharing a stripe also share ordering.
	roomLockStripes = 256
)

// Store persists messages.
type Store interface {
	Create(ctx context.Context, m *models.Message) error
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]models.Message, error)
}

// Broadcaster delivers an event to every member of a room.
type Broadcaster interface {
	Publish(ctx context.Context, eventID uuid.UUID, event string, payload interface{}) error
}

// Service is the chat relay: persist, then broadcast.
type Service struct {
	store  Store
	rooms  Broadcaster
	locks  [roomLockStripes]sync.Mutex
	logger *zap.Logger
}

// NewService creates a chat relay.
func NewService(store Store, rooms Broadcaster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, rooms: rooms, logger: logger}
}

// roomLock returns the stripe guarding eventID. The table is fixed-size, so ids supplied by
// clients never grow it.
func (s *Service) roomLock(eventID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(eventID[:])
	return &s.locks[h.Sum32()%roomLockStripes]
}

// Send persists a message and broadcasts it to the room. Sends to one room are serialized
// so members see messages in persistence order. A message that fails to persist is never broadcast.
func (s *Service) Send(ctx context.Context, eventID uuid.UUID, from, text string) (*models.Message, error) {
	from = strings.TrimSpace(from)
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, models.Invalid("text is required")
	case utf8.RuneCountInString(text) > MaxTextLength:
		return nil, models.Invalid(fmt.Sprintf("text exceeds %d characters", MaxTextLength))
	case from == "":
		return nil, models.Invalid("from is required")
	case utf8.RuneCountInString(from) > MaxSenderLength:
		return nil, models.Invalid(fmt.Sprintf("from exceeds %d characters", MaxSenderLength))
	}

	lock := s.roomLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	m := &models.Message{EventID: eventID, From: from, Text: text}
	if err := s.store.Create(ctx, m); err != nil {
		metrics.ChatFailures.Inc()
		s.logger.Warn("chat message not persisted", zap.Error(err), zap.String("event_id", eventID.String()))
		return nil, fmt.Errorf("persist message: %w", err)
	}
	if err := s.rooms.Publish(ctx, eventID, EventMessage, m); err != nil {
		s.logger.Error("chat broadcast failed", zap.Error(err), zap.String("message_id", m.ID.String()))
		return m, fmt.Errorf("broadcast message: %w", err)
	}
	metrics.ChatMessages.Inc()
	return m, nil
}

// History returns up to limit recent messages of an event, oldest first.
func (s *Service) History(ctx context.Context, eventID uuid.UUID, limit int) ([]models.Message, error) {
	return s.store.ListByEvent(ctx, eventID, limit)
}
