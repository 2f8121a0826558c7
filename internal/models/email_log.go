package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for reminder automation.
const (
	EmailTypeSpeakerReminder  = "reminder_speaker"
	EmailTypeAttendeeReminder = "reminder_attendee"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records a reminder claimed for (event, recipient, type) and its delivery outcome.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
