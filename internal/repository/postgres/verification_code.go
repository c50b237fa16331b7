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

const verificationCodeColumns = `id, email, code, attempts, expires_at, request_count,
	window_started_at, blocked_until, created_at, updated_at`

type verificationCodeRepository struct {
	repository.BaseRepository
}

// NewVerificationCodeRepository creates a new PostgreSQL verification code repository
func NewVerificationCodeRepository(db *sqlx.DB) repository.VerificationCodeRepository {
	return &verificationCodeRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *verificationCodeRepository) Lock(ctx context.Context, email string) error {
	// The row may not exist yet, so the lock is taken on the key instead.
	_, err := r.Executor(ctx).ExecContext(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", "verification_codes:"+email)
	return err
}

func (r *verificationCodeRepository) GetByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := r.Executor(ctx).GetContext(ctx, &code,
		`SELECT `+verificationCodeColumns+` FROM verification_codes WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *verificationCodeRepository) Save(ctx context.Context, code *models.VerificationCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}

	query := `
		INSERT INTO verification_codes (
			id, email, code, attempts, expires_at, request_count, window_started_at, blocked_until
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (email) DO UPDATE SET
			code = EXCLUDED.code,
			attempts = EXCLUDED.attempts,
			expires_at = EXCLUDED.expires_at,
			request_count = EXCLUDED.request_count,
			window_started_at = EXCLUDED.window_started_at,
			blocked_until = EXCLUDED.blocked_until,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	return r.Executor(ctx).QueryRowxContext(ctx, query,
		code.ID,
		code.Email,
		code.Code,
		code.Attempts,
		code.ExpiresAt,
		code.RequestCount,
		code.WindowStartedAt,
		code.BlockedUntil,
	).Scan(&code.ID, &code.CreatedAt, &code.UpdatedAt)
}

func (r *verificationCodeRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	query := `
		UPDATE verification_codes
		SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE email = $1
		RETURNING attempts`

	var attempts int
	err := r.Executor(ctx).QueryRowxContext(ctx, query, email).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrCodeNotFound
	}
	return attempts, err
}

func (r *verificationCodeRepository) Delete(ctx context.Context, email string) error {
	result, err := r.Executor(ctx).ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = $1`, email)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrCodeNotFound
	}
	return nil
}

func (r *verificationCodeRepository) DeleteStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	query := `
		DELETE FROM verification_codes
		WHERE expires_at < $1
		AND (blocked_until IS NULL OR blocked_until <= $2)`

	result, err := r.Executor(ctx).ExecContext(ctx, query, cutoff, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
