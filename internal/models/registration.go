package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is an attendee registration for an event (unique per event+email).
type Registration struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ContactInfo string    `json:"contact_info,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegistrationUpdate carries the fields of a partial update; nil means unchanged.
type RegistrationUpdate struct {
	Name        *string
	Email       *string
	ContactInfo *string
}
