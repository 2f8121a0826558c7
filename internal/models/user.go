package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleSpeaker  Role = "speaker"
	RoleAttendee Role = "attendee"
)

// ParseRole validates a role string from a request body.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSpeaker, RoleAttendee:
		return Role(s), nil
	}
	return "", Invalid("role must be speaker or attendee")
}

// User represents a platform user.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Role        Role      `json:"role"`
	Bio         string    `json:"bio"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	ContactInfo string    `json:"contact_info"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Bio         string    `json:"bio"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	ContactInfo string    `json:"contact_info"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Bio:         u.Bio,
		PhotoURL:    u.PhotoURL,
		ContactInfo: u.ContactInfo,
		CreatedAt:   u.CreatedAt,
	}
}

// UserRef is the (name, email) projection used when embedding users in events and RSVPs.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Identity is the trusted caller resolved from a bearer token.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

// Require returns ErrForbidden unless the caller holds the given role.
func (i Identity) Require(role Role) error {
	if i.Role != role {
		return fmt.Errorf("%w: requires %s role", ErrForbidden, role)
	}
	return nil
}
