package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/database"
)

// Repository persists chat messages.
type Repository struct {
	db database.DB
}

// NewRepository creates a message repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a message. The timestamp is assigned by the database.
func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	const q = `INSERT INTO messages (event_id, sender, body) VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, m.EventID, m.From, m.Text).Scan(&m.ID, &m.Timestamp)
	if database.IsForeignKeyViolation(err, "messages_event_id_fkey") {
		return fmt.Errorf("event %w", models.ErrNotFound)
	}
	return err
}

// ListByEvent returns the most recent messages of an event, oldest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]models.Message, error) {
	const q = `SELECT id, event_id, sender, body, created_at FROM (
			SELECT id, event_id, sender, body, created_at FROM messages
			WHERE event_id = $1 ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at`
	rows, err := r.db.Query(ctx, q, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.EventID, &m.From, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
