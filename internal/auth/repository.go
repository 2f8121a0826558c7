package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/database"
)

const userColumns = `id, name, email, password_hash, role, COALESCE(bio,''), COALESCE(photo_url,''), COALESCE(contact_info,''), created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an auth repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Bio, &u.PhotoURL, &u.ContactInfo, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("user: %w", models.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// ListByRole returns users with the given role, ordered by name.
func (r *Repository) ListByRole(ctx context.Context, role models.Role) ([]models.UserPublic, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name, email`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.UserPublic{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u.ToPublic())
	}
	return list, rows.Err()
}

// Create inserts a new user. A duplicate email yields models.ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (name, email, password_hash, role, bio, photo_url, contact_info)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''))
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, u.Name, u.Email, u.Password, string(u.Role), u.Bio, u.PhotoURL, u.ContactInfo).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if database.IsUniqueViolation(err, "users_email_key") {
		return models.ErrEmailTaken
	}
	return err
}

// ProfileUpdate carries profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	Bio         *string
	ContactInfo *string
	PhotoURL    *string
}

// UpdateProfile applies a partial profile update and returns the stored user.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*models.User, error) {
	const q = `UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			bio = COALESCE($4, bio),
			contact_info = COALESCE($5, contact_info),
			photo_url = COALESCE($6, photo_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, q, id, p.Name, p.Email, p.Bio, p.ContactInfo, p.PhotoURL))
	if database.IsUniqueViolation(err, "users_email_key") {
		return nil, models.ErrEmailTaken
	}
	return u, err
}
