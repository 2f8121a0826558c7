package rsvps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/database"
)

// Repository handles the RSVP ledger.
type Repository struct {
	db database.DB
}

// NewRepository creates an RSVP repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the speaker's status for an event in one statement. The insert only happens
// while the event exists and accepts RSVPs; an existing row for the pair is overwritten.
func (r *Repository) Upsert(ctx context.Context, eventID, speakerID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error) {
	const q = `INSERT INTO rsvps (event_id, speaker_id, status)
		SELECT e.id, $2, $3 FROM events e WHERE e.id = $1 AND e.rsvp_state = 'open'
		ON CONFLICT (event_id, speaker_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING event_id, speaker_id, status, created_at, updated_at`

	// A concurrent first insert for the same pair can still surface as a unique violation
	// on some isolation levels; the second attempt lands on the conflict branch.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var v models.RSVP
		var st string
		err = r.db.QueryRow(ctx, q, eventID, speakerID, string(status)).
			Scan(&v.EventID, &v.SpeakerID, &st, &v.CreatedAt, &v.UpdatedAt)
		if err == nil {
			v.Status = models.RSVPStatus(st)
			return &v, nil
		}
		if database.IsUniqueViolation(err, "rsvps_event_speaker_key") {
			continue
		}
		if database.IsNoRows(err) {
			return nil, r.rejection(ctx, eventID)
		}
		if database.IsForeignKeyViolation(err, "") {
			return nil, fmt.Errorf("speaker %w", models.ErrNotFound)
		}
		return nil, err
	}
	return nil, err
}

// rejection explains why the guarded insert matched no event.
func (r *Repository) rejection(ctx context.Context, eventID uuid.UUID) error {
	var state string
	err := r.db.QueryRow(ctx, `SELECT rsvp_state FROM events WHERE id = $1`, eventID).Scan(&state)
	if database.IsNoRows(err) {
		return fmt.Errorf("event %w", models.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return models.ErrRSVPClosed
}

// ListForEvent returns RSVP rows for one event with speakers resolved.
func (r *Repository) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.RSVPEntry, error) {
	byEvent, err := r.ListForEvents(ctx, []uuid.UUID{eventID})
	if err != nil {
		return nil, err
	}
	if list := byEvent[eventID]; list != nil {
		return list, nil
	}
	return []models.RSVPEntry{}, nil
}

// ListForEvents returns RSVP rows grouped by event, oldest first within each event.
func (r *Repository) ListForEvents(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.RSVPEntry, error) {
	out := make(map[uuid.UUID][]models.RSVPEntry, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	const q = `SELECT r.event_id, u.id, u.name, u.email, r.status, r.updated_at
		FROM rsvps r JOIN users u ON u.id = r.speaker_id
		WHERE r.event_id = ANY($1)
		ORDER BY r.event_id, r.created_at`
	rows, err := r.db.Query(ctx, q, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e models.RSVPEntry
		var st string
		if err := rows.Scan(&e.EventID, &e.Speaker.ID, &e.Speaker.Name, &e.Speaker.Email, &st, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = models.RSVPStatus(st)
		out[e.EventID] = append(out[e.EventID], e)
	}
	return out, rows.Err()
}
