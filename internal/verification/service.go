package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authd/internal/config"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/repository"
)

// StaleAfter is how long an expired code is kept before Cleanup removes it
const StaleAfter = 24 * time.Hour

// Service implements the verification code lifecycle. Every read-modify-write
// runs in one transaction holding the per-email lock, so concurrent requests
// for the same email are serialized.
type Service struct {
	repo repository.VerificationCodeRepository
	cfg  config.VerificationConfig
	now  func() time.Time
}

// NewService creates a new verification service
func NewService(repo repository.VerificationCodeRepository, cfg config.VerificationConfig) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC() }
}

// Issue creates or replaces the code for email. The email must already be
// normalized. When the request budget of the window is exhausted the email is
// blocked for the configured duration and a *BlockedError is returned.
func (s *Service) Issue(ctx context.Context, email string) (*models.VerificationCode, error) {
	var (
		issued  *models.VerificationCode
		blocked *BlockedError
	)

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Lock(ctx, email); err != nil {
			return fmt.Errorf("failed to lock verification code: %w", err)
		}

		now := s.now()
		current, err := s.repo.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			current = &models.VerificationCode{Email: email, WindowStartedAt: now}
		case err != nil:
			return fmt.Errorf("failed to get verification code: %w", err)
		}

		if current.IsBlocked(now) {
			blocked = newBlockedError(*current.BlockedUntil, now)
			return nil
		}

		// The window restarts once it has elapsed or a previous block ended.
		if current.BlockedUntil != nil || now.Sub(current.WindowStartedAt) >= s.cfg.RequestWindow {
			current.RequestCount = 0
			current.WindowStartedAt = now
			current.BlockedUntil = nil
		}

		current.RequestCount++
		if current.RequestCount > s.cfg.MaxRequests {
			until := now.Add(s.cfg.BlockDuration)
			current.BlockedUntil = &until
			blocked = newBlockedError(until, now)
			return s.repo.Save(ctx, current)
		}

		code, err := GenerateCode()
		if err != nil {
			return err
		}
		current.Code = code
		current.ExpiresAt = GenerateExpiration(now, s.cfg.CodeTTL)
		current.Attempts = 0

		if err := s.repo.Save(ctx, current); err != nil {
			return fmt.Errorf("failed to save verification code: %w", err)
		}
		issued = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if blocked != nil {
		logging.FromContext(ctx).Warn("verification code requests blocked",
			"email", email, "blocked_until", blocked.Until)
		return nil, blocked
	}
	return issued, nil
}

// Verify checks code against the stored one. A match retires the row, so a
// code verifies successfully at most once. A mismatch is counted and never
// touches the stored code or its expiration.
func (s *Service) Verify(ctx context.Context, email string, code int) error {
	var outcome error

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Lock(ctx, email); err != nil {
			return fmt.Errorf("failed to lock verification code: %w", err)
		}

		current, err := s.repo.GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrCodeNotFound) {
			outcome = ErrNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get verification code: %w", err)
		}

		now := s.now()
		switch {
		case current.IsBlocked(now):
			outcome = newBlockedError(*current.BlockedUntil, now)
		case current.IsExpired(now):
			outcome = ErrExpired
		case current.Code != code:
			if _, err := s.repo.IncrementAttempts(ctx, email); err != nil {
				return fmt.Errorf("failed to record verification attempt: %w", err)
			}
			outcome = ErrMismatch
		default:
			if err := s.repo.Delete(ctx, email); err != nil {
				return fmt.Errorf("failed to consume verification code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return outcome
}

// ValidFor returns how long code stays valid from now on
func (s *Service) ValidFor(code *models.VerificationCode) time.Duration {
	return code.ValidFor(s.now())
}

// Current returns the stored code for email, ErrNotFound when there is none
func (s *Service) Current(ctx context.Context, email string) (*models.VerificationCode, error) {
	code, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrCodeNotFound) {
		return nil, ErrNotFound
	}
	return code, err
}

// Cleanup deletes codes that expired more than StaleAfter ago and are not
// currently blocked. Blocked rows are kept so the cooldown survives.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	now := s.now()
	deleted, err := s.repo.DeleteStale(ctx, now.Add(-StaleAfter), now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale verification codes: %w", err)
	}
	return deleted, nil
}
