package models

import "time"

// LoginResponse represents the response to a successful login
type LoginResponse struct {
	AccessToken        string `json:"access_token"`
	RefreshToken       string `json:"refresh_token"`
	MustChangePassword bool   `json:"must_change_password"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status string    `json:"status" example:"healthy"`
	Time   time.Time `json:"time" example:"2024-03-20T13:00:00Z"`
}
