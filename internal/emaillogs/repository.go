package emaillogs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/database"
)

// Repository handles email_logs persistence. A row doubles as the sent-marker for a reminder.
type Repository struct {
	db database.DB
}

// NewRepository creates an email logs repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Claim records a pending reminder for (event, recipient, type). claimed is false when a row
// already exists, in which case the reminder was dispatched by an earlier run.
func (r *Repository) Claim(ctx context.Context, eventID uuid.UUID, recipient, emailType, subject string) (id uuid.UUID, claimed bool, err error) {
	const q = `INSERT INTO email_logs (event_id, recipient_email, email_type, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT email_logs_event_recipient_type_key DO NOTHING
		RETURNING id`
	err = r.db.QueryRow(ctx, q, eventID, recipient, emailType, subject, models.EmailLogStatusPending).Scan(&id)
	switch {
	case err == nil:
		return id, true, nil
	case database.IsNoRows(err):
		return uuid.Nil, false, nil
	case database.IsForeignKeyViolation(err, "email_logs_event_id_fkey"):
		return uuid.Nil, false, fmt.Errorf("event %w", models.ErrNotFound)
	}
	return uuid.Nil, false, err
}

// Release drops a claim that was never dispatched so a later run can retry it.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM email_logs WHERE id = $1 AND status = $2`, id, models.EmailLogStatusPending)
	return err
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = $2, sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, models.EmailLogStatusSent)
	return err
}

// MarkFailed records the last delivery error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE email_logs SET status = $2, error_message = $3 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, models.EmailLogStatusFailed, reason)
	return err
}

// ListByEvent returns email logs for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, event_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE event_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.EmailLog{}
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.EventID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, el)
	}
	return list, rows.Err()
}
