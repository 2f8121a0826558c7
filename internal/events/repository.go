package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/database"
)

const eventColumns = `e.id, e.title, COALESCE(e.description, ''), e.date_time, COALESCE(e.meeting_link, ''),
	e.rsvp_state, e.created_by, e.created_at, e.updated_at,
	COALESCE((SELECT array_agg(s.speaker_id ORDER BY s.position) FROM event_speakers s WHERE s.event_id = e.id), '{}')`

// Repository handles event persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an event repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var state string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.DateTime, &e.MeetingLink,
		&state, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.SpeakerIDs)
	if err != nil {
		return nil, err
	}
	e.RSVPState = models.RSVPState(state)
	return &e, nil
}

// Create inserts the event and its invited speakers in one transaction.
// An unknown speaker id is reported as a validation error and nothing is written.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO events (title, description, date_time, meeting_link, rsvp_state, created_by)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, e.Title, e.Description, e.DateTime, e.MeetingLink, string(e.RSVPState), e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return err
	}
	if err := insertSpeakers(ctx, tx, e.ID, e.SpeakerIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertSpeakers(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, speakerIDs []uuid.UUID) error {
	const q = `INSERT INTO event_speakers (event_id, speaker_id, position) VALUES ($1, $2, $3)`
	for i, id := range speakerIDs {
		if _, err := tx.Exec(ctx, q, eventID, id, i); err != nil {
			if database.IsForeignKeyViolation(err, "event_speakers_speaker_id_fkey") {
				return models.Invalid(fmt.Sprintf("unknown speaker %s", id))
			}
			return err
		}
	}
	return nil
}

// GetByID returns an event with its invited speaker ids in invitation order.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("event %w", models.ErrNotFound)
	}
	return e, err
}

// List returns all events, soonest first.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events e ORDER BY e.date_time`)
}

// ListBetween returns events whose date_time falls within [from, to].
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events e
		WHERE e.date_time BETWEEN $1 AND $2 ORDER BY e.date_time`, from, to)
}

func (r *Repository) query(ctx context.Context, q string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// SpeakersFor resolves invited speakers for each event, in invitation order.
func (r *Repository) SpeakersFor(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.UserRef, error) {
	out := make(map[uuid.UUID][]models.UserRef, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	const q = `SELECT s.event_id, u.id, u.name, u.email
		FROM event_speakers s JOIN users u ON u.id = s.speaker_id
		WHERE s.event_id = ANY($1)
		ORDER BY s.event_id, s.position`
	rows, err := r.db.Query(ctx, q, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID uuid.UUID
		var ref models.UserRef
		if err := rows.Scan(&eventID, &ref.ID, &ref.Name, &ref.Email); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], ref)
	}
	return out, rows.Err()
}

// Update applies a partial update. Replacing the speaker list and the field update commit together.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, upd models.EventUpdate) (*models.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var state *string
	if upd.RSVPState != nil {
		s := string(*upd.RSVPState)
		state = &s
	}
	const q = `UPDATE events SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			date_time = COALESCE($4, date_time),
			meeting_link = COALESCE($5, meeting_link),
			rsvp_state = COALESCE($6, rsvp_state),
			updated_at = NOW()
		WHERE id = $1`
	tag, err := tx.Exec(ctx, q, id, upd.Title, upd.Description, upd.DateTime, upd.MeetingLink, state)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("event %w", models.ErrNotFound)
	}
	if upd.SpeakerIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM event_speakers WHERE event_id = $1`, id); err != nil {
			return nil, err
		}
		if err := insertSpeakers(ctx, tx, id, upd.SpeakerIDs); err != nil {
			return nil, err
		}
	}
	e, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an event. RSVPs, registrations, messages and email logs go with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %w", models.ErrNotFound)
	}
	return nil
}
