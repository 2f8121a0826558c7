package models

import (
	"time"

	"github.com/google/uuid"
)

// RSVPStatus is a speaker's answer to an invitation.
type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "yes"
	RSVPNo    RSVPStatus = "no"
	RSVPMaybe RSVPStatus = "maybe"
)

// Valid reports whether s is yes, no or maybe.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPYes, RSVPNo, RSVPMaybe:
		return true
	}
	return false
}

// RSVP is the single response of one speaker to one event.
type RSVP struct {
	EventID   uuid.UUID  `json:"event_id"`
	SpeakerID uuid.UUID  `json:"speaker_id"`
	Status    RSVPStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RSVPEntry is an RSVP with the speaker resolved.
type RSVPEntry struct {
	EventID   uuid.UUID  `json:"event_id"`
	Speaker   UserRef    `json:"speaker"`
	Status    RSVPStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}
