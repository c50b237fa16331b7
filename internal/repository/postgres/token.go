package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"authd/internal/models"
	"authd/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const tokenColumns = `id, user_id, token, expires_at, is_revoked, created_at, updated_at`

type tokenRepository struct {
	repository.BaseRepository
}

// NewTokenRepository creates a new PostgreSQL refresh token repository
func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.Token) error {
	// First verify the user exists
	var exists bool
	err := r.Executor(ctx).QueryRowxContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", token.UserID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrUserNotFound
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `
		INSERT INTO tokens (id, user_id, token, expires_at, is_revoked)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err = r.Executor(ctx).QueryRowxContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.IsRevoked,
	).Scan(&token.CreatedAt, &token.UpdatedAt)
	if isUniqueViolation(err, "tokens_token_key") {
		return repository.ErrTokenExists
	}
	return err
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*models.Token, error) {
	var t models.Token
	err := r.Executor(ctx).GetContext(ctx, &t,
		`SELECT `+tokenColumns+` FROM tokens WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE user_id = $1 ORDER BY created_at DESC`

	tokens := []models.Token{}
	if err := r.Executor(ctx).SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE user_id = $1 AND is_revoked = false AND expires_at > $2
		ORDER BY created_at DESC`

	tokens := []models.Token{}
	if err := r.Executor(ctx).SelectContext(ctx, &tokens, query, userID, now.UTC()); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, token string) error {
	// is_revoked only ever moves to true, so concurrent revocations converge.
	query := `
		UPDATE tokens
		SET is_revoked = true,
		    updated_at = CASE WHEN is_revoked THEN updated_at ELSE CURRENT_TIMESTAMP END
		WHERE token = $1`

	result, err := r.Executor(ctx).ExecContext(ctx, query, token)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrTokenNotFound
	}
	return nil
}

func (r *tokenRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `
		UPDATE tokens
		SET is_revoked = true, updated_at = CURRENT_TIMESTAMP
		WHERE token = $1 AND is_revoked = false AND expires_at > $2`

	result, err := r.Executor(ctx).ExecContext(ctx, query, token, now)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *tokenRepository) RevokeAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE tokens
		SET is_revoked = true, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND is_revoked = false`

	result, err := r.Executor(ctx).ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
