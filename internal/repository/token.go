package repository

import (
	"context"
	"time"

	"authd/internal/models"

	"github.com/google/uuid"
)

// TokenRepository defines the interface for refresh token operations
type TokenRepository interface {
	Repository
	Create(ctx context.Context, token *models.Token) error
	// GetByToken returns the token whatever its state; ErrTokenNotFound when unknown
	GetByToken(ctx context.Context, token string) (*models.Token, error)
	// ListByUserID returns all of the user's tokens, newest first
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Token, error)
	// ListActiveByUserID returns the user's tokens that are neither revoked
	// nor expired at now, newest first
	ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Token, error)
	// Revoke sets is_revoked. Revoking twice is not an error.
	Revoke(ctx context.Context, token string) error
	// Consume revokes the token only if it is still valid at now and reports
	// whether this call did it. Concurrent callers see true at most once.
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
	// RevokeAllByUserID revokes every token of the user and returns how many changed
	RevokeAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
