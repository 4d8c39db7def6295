package dto

import "time"

// IssueTokenRequest asks for a token bound to a user identifier.
type IssueTokenRequest struct {
	UserID string `json:"user_id"`
}

// TokenRequest carries a token to check.
type TokenRequest struct {
	Token string `json:"token"`
}

// AuthResponse standard response for issued tokens.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidateResponse is the boolean verdict on a token.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// ClaimsResponse exposes the decoded claims of a valid token.
type ClaimsResponse struct {
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}
