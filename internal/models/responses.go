package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenTypeBearer is the only token type issued
const TokenTypeBearer = "Bearer"

// TokenResponse represents the tokens issued after login or registration
type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIs..."`
	RefreshToken string `json:"refresh_token" example:"dG9rZW4uLi4="`
	TokenType    string `json:"token_type" example:"Bearer"`
}

// VerificationCodeResponse is returned once a code has been issued
type VerificationCodeResponse struct {
	Message   string `json:"message" example:"verification code sent"`
	ExpiresIn int    `json:"expires_in" example:"600"`
}

// SessionResponse describes one active refresh token of the current user
type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// RevokeSessionsResponse reports how many sessions were revoked
type RevokeSessionsResponse struct {
	Revoked int64 `json:"revoked" example:"3"`
}
