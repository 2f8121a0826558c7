package models

import (
	"time"

	"github.com/google/uuid"
)

// RSVPState controls whether an event accepts RSVPs.
type RSVPState string

const (
	RSVPOpen   RSVPState = "open"
	RSVPClosed RSVPState = "closed"
)

// Valid reports whether s is a known state.
func (s RSVPState) Valid() bool {
	return s == RSVPOpen || s == RSVPClosed
}

// Event is a scheduled conference session with invited speakers.
type Event struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	DateTime    time.Time   `json:"date_time"`
	MeetingLink string      `json:"meeting_link,omitempty"`
	SpeakerIDs  []uuid.UUID `json:"speaker_ids"`
	RSVPState   RSVPState   `json:"rsvp_state"`
	CreatedBy   *uuid.UUID  `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventDetail is an event with invited speakers resolved and, optionally, its RSVP rows.
// An event without RSVPs omits the rsvps key.
type EventDetail struct {
	Event
	Speakers []UserRef   `json:"speakers"`
	RSVPs    []RSVPEntry `json:"rsvps,omitempty"`
}

// EventUpdate carries the fields of a partial update; nil means unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	DateTime    *time.Time
	MeetingLink *string
	RSVPState   *RSVPState
	SpeakerIDs  []uuid.UUID // nil means unchanged
}
