package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side session row, identified by the opaque id carried
// in the session cookie. The four expiry fields cache the outcome of the
// password expiry check so it is not re-derived on every request.
type Session struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	LastChecked    *time.Time `json:"last_checked" db:"last_checked"`
	LastChanged    *time.Time `json:"last_changed" db:"last_changed"`
	ChangeRequired bool       `json:"change_required" db:"change_required"`
	Expired        bool       `json:"expired" db:"expired"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
