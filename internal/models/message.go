package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one persisted chat line in an event room.
type Message struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
