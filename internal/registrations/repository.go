package registrations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/database"
)

const registrationColumns = `id, event_id, name, email, COALESCE(contact_info, ''), created_at, updated_at`

// Repository handles the registration ledger.
type Repository struct {
	db database.DB
}

// NewRepository creates a registrations repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.Name, &reg.Email, &reg.ContactInfo, &reg.CreatedAt, &reg.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("registration %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// classify maps ledger constraint violations onto domain errors.
func classify(err error) error {
	switch {
	case database.IsUniqueViolation(err, "registrations_event_email_key"):
		return models.ErrAlreadyRegistered
	case database.IsForeignKeyViolation(err, "registrations_event_id_fkey"):
		return fmt.Errorf("event %w", models.ErrNotFound)
	}
	return err
}

// Create inserts a registration. The (event, email) uniqueness constraint decides duplicates.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (event_id, name, email, contact_info)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, reg.EventID, reg.Name, reg.Email, reg.ContactInfo).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	return classify(err)
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.db.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
}

// ListByEvent returns all registrations for an event in sign-up order.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	rows, err := r.db.Query(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// Update applies a partial update and returns the stored row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, upd models.RegistrationUpdate) (*models.Registration, error) {
	const q = `UPDATE registrations SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			contact_info = COALESCE($4, contact_info),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + registrationColumns
	reg, err := scanRegistration(r.db.QueryRow(ctx, q, id, upd.Name, upd.Email, upd.ContactInfo))
	if err != nil {
		return nil, classify(err)
	}
	return reg, nil
}

// Delete removes a registration.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration %w", models.ErrNotFound)
	}
	return nil
}
