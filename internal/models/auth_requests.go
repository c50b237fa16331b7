package models

import "strings"

// VerificationCodeRequest asks for a verification code to be sent to an email
type VerificationCodeRequest struct {
	Email string `json:"email" binding:"required,max=255,email_address" example:"example@gmail.com"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255,email_address" example:"example@gmail.com"`
	Password string `json:"password" binding:"required,min=8" example:"Strongpassword1@"`
}

// RegisterRequest represents a registration request confirmed by a verification code
type RegisterRequest struct {
	Email     string  `json:"email" binding:"required,max=255,email_address" example:"example@gmail.com"`
	Password  string  `json:"password" binding:"required,strong_password" example:"Strongpassword1@"`
	FirstName string  `json:"first_name" binding:"required,min=2,max=255" example:"John"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,min=2,max=255" example:"Doe"`
	Code      int     `json:"code" binding:"required" example:"123456"`
}

// RefreshTokenRequest carries a refresh token for rotation or revocation
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Normalize lowercases the email after validation accepted it
func (r *VerificationCodeRequest) Normalize() {
	r.Email = strings.ToLower(r.Email)
}

// Normalize lowercases the email after validation accepted it
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(r.Email)
}

// Normalize lowercases the email after validation accepted it
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(r.Email)
}
