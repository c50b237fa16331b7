package repository

import (
	"context"
	"time"

	"authd/internal/models"
)

// VerificationCodeRepository defines the storage operations of verification codes.
// Read-modify-write sequences must run inside Transaction after Lock.
type VerificationCodeRepository interface {
	Repository
	// Lock serializes all transactions touching email until the surrounding
	// transaction ends. It must be called inside Transaction.
	Lock(ctx context.Context, email string) error
	// GetByEmail returns ErrCodeNotFound when no code was issued
	GetByEmail(ctx context.Context, email string) (*models.VerificationCode, error)
	// Save creates or replaces the row for code.Email
	Save(ctx context.Context, code *models.VerificationCode) error
	// IncrementAttempts records a failed verification and returns the new count
	IncrementAttempts(ctx context.Context, email string) (int, error)
	// Delete retires the row after a successful verification
	Delete(ctx context.Context, email string) error
	// DeleteStale removes rows that expired before cutoff and are not blocked at now
	DeleteStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}
