package repository

import "errors"

var (
	// User errors
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrUserNotFound   = errors.New("user not found")

	// Role errors
	ErrRoleNotFound = errors.New("role not found")

	// Token errors
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotFound = errors.New("token not found")

	// Reset token errors
	ErrResetTokenInvalid = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token expired")
	ErrResetTokenUsed    = errors.New("reset token already used")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
)
