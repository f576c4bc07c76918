package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Password            string     `json:"-"`
	Email               *string    `json:"email"`
	RoleID              uuid.UUID  `json:"role_id"`
	Role                *Role      `json:"role,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	FailedLoginAttempts int        `json:"-"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user has an admin role
func (u *User) IsAdmin() bool {
	return u.Role != nil && u.Role.IsAdminGroup
}

// CreateUserRequest represents the request to create a new user
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50,notblank"`
	Password string  `json:"password" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// ChangePasswordRequest represents the request to change a user's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=72"`
}

// ValidatePasswordRequest represents a dry-run validation request
type ValidatePasswordRequest struct {
	Password string `json:"password" binding:"required,max=72"`
}

// PasswordResetRequest represents the request to initiate a password reset
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CompleteResetRequest represents the request to complete a password reset
type CompleteResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=72"`
}
