package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authd/internal/email"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/verification"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// CodeStore is the part of the verification service the handlers use
type CodeStore interface {
	Current(ctx context.Context, email string) (*models.VerificationCode, error)
	Cleanup(ctx context.Context) (int64, error)
}

// Marker records that a side effect happened so a redelivered task skips it
type Marker interface {
	// Mark sets key unless it exists and reports whether this call set it
	Mark(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

// RedisMarker implements Marker with SETNX
type RedisMarker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisMarker creates a new Redis marker
func NewRedisMarker(client redis.UniversalClient) *RedisMarker {
	return &RedisMarker{client: client, prefix: "authd:sent:"}
}

func (m *RedisMarker) Mark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return m.client.SetNX(ctx, m.prefix+key, 1, ttl).Result()
}

func (m *RedisMarker) Unmark(ctx context.Context, key string) error {
	return m.client.Del(ctx, m.prefix+key).Err()
}

// Handlers processes tasks
type Handlers struct {
	codes  CodeStore
	sender email.Sender
	marker Marker
	now    func() time.Time
}

// NewHandlers creates the task handlers
func NewHandlers(codes CodeStore, sender email.Sender, marker Marker) *Handlers {
	return &Handlers{
		codes:  codes,
		sender: sender,
		marker: marker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register routes the task types to their handlers
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeVerificationEmail, h.HandleVerificationEmail)
	mux.HandleFunc(TypeVerificationCleanup, h.HandleVerificationCleanup)
}

// HandleVerificationEmail mails a verification code. Codes that were
// replaced, consumed or have expired since enqueueing are skipped, and so are
// codes whose mail was already sent.
func (h *Handlers) HandleVerificationEmail(ctx context.Context, t *asynq.Task) error {
	p, err := ParseVerificationEmailPayload(t)
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx).With("task", TypeVerificationEmail, "email", p.Email)

	current, err := h.codes.Current(ctx, p.Email)
	if errors.Is(err, verification.ErrNotFound) {
		logger.Info("verification code already consumed, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load verification code: %w", err)
	}

	now := h.now()
	if current.Code != p.Code || !current.ExpiresAt.Equal(p.ExpiresAt) {
		logger.Info("verification code superseded, skipping")
		return nil
	}
	if current.IsExpired(now) {
		logger.Info("verification code expired before delivery, skipping")
		return nil
	}

	validFor := current.ValidFor(now)
	marked, err := h.marker.Mark(ctx, p.Key(), validFor+time.Minute)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	if !marked {
		logger.Info("verification email already sent, skipping")
		return nil
	}

	if err := h.sender.SendVerificationCode(ctx, p.Email, p.Code, validFor); err != nil {
		if uerr := h.marker.Unmark(ctx, p.Key()); uerr != nil {
			logger.Error("failed to clear delivery marker", "error", uerr)
		}
		return err
	}

	logger.Info("verification email sent")
	return nil
}

// HandleVerificationCleanup removes stale verification codes
func (h *Handlers) HandleVerificationCleanup(ctx context.Context, _ *asynq.Task) error {
	deleted, err := h.codes.Cleanup(ctx)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("stale verification codes removed", "deleted", deleted)
	return nil
}
