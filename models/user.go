package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a system user
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanManage reports whether the user may operate on a resource owned by ownerID.
// Owners and admins pass; everyone else is rejected at the boundary.
func (u *User) CanManage(ownerID uuid.UUID) bool {
	return u.IsAdmin || u.ID == ownerID
}
