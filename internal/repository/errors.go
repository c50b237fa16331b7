package repository

import "errors"

var (
	// Common errors
	ErrNotFound = errors.New("not found")

	// User errors
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")

	// Verification code errors
	ErrCodeNotFound = errors.New("verification code not found")

	// Token errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExists   = errors.New("token already exists")
)
