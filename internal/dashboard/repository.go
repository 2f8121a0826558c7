package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/pkg/database"
)

// Summary is the aggregate view behind GET /api/dashboard/summary.
type Summary struct {
	EventCount        int        `json:"event_count"`
	SpeakerCount      int        `json:"speaker_count"`
	AttendeeCount     int        `json:"attendee_count"`
	RegistrationCount int        `json:"registration_count"`
	RSVPCount         int        `json:"rsvp_count"`
	TopEvents         []TopEvent `json:"top_events"`
}

// TopEvent is an event ranked by registrations.
type TopEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	Title         string    `json:"title"`
	AttendeeCount int       `json:"attendee_count"`
}

// TopEventsLimit caps the ranking in the summary.
const TopEventsLimit = 5

// Repository runs the reporting queries.
type Repository struct {
	db database.DB
}

// NewRepository creates a dashboard repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Summary returns platform-wide counts and the busiest events.
func (r *Repository) Summary(ctx context.Context) (*Summary, error) {
	const counts = `SELECT
		(SELECT COUNT(*) FROM events),
		(SELECT COUNT(*) FROM users WHERE role = 'speaker'),
		(SELECT COUNT(*) FROM users WHERE role = 'attendee'),
		(SELECT COUNT(*) FROM registrations),
		(SELECT COUNT(*) FROM rsvps)`
	var s Summary
	err := r.db.QueryRow(ctx, counts).
		Scan(&s.EventCount, &s.SpeakerCount, &s.AttendeeCount, &s.RegistrationCount, &s.RSVPCount)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	const top = `SELECT e.id, e.title, COUNT(r.id) AS attendee_count
		FROM registrations r JOIN events e ON e.id = r.event_id
		GROUP BY e.id, e.title
		ORDER BY attendee_count DESC, e.title
		LIMIT $1`
	rows, err := r.db.Query(ctx, top, TopEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard top events: %w", err)
	}
	defer rows.Close()
	s.TopEvents = []TopEvent{}
	for rows.Next() {
		var t TopEvent
		if err := rows.Scan(&t.EventID, &t.Title, &t.AttendeeCount); err != nil {
			return nil, fmt.Errorf("dashboard top events: %w", err)
		}
		s.TopEvents = append(s.TopEvents, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard top events: %w", err)
	}
	return &s, nil
}
