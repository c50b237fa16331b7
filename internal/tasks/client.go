package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authd/internal/config"
	"authd/internal/logging"
	"authd/internal/models"

	"github.com/hibiken/asynq"
)

// Enqueuer schedules background work
type Enqueuer interface {
	EnqueueVerificationEmail(ctx context.Context, code *models.VerificationCode) error
	EnqueueVerificationCleanup(ctx context.Context) error
}

// RedisOpt returns the asynq connection options for cfg
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Client enqueues tasks on the Redis broker
type Client struct {
	client        *asynq.Client
	cleanupWindow time.Duration
}

// NewClient creates a new task client
func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client:        asynq.NewClient(RedisOpt(cfg)),
		cleanupWindow: time.Hour,
	}
}

// EnqueueVerificationEmail enqueues the delivery of code. Enqueuing the same
// issuance twice is not an error.
func (c *Client) EnqueueVerificationEmail(ctx context.Context, code *models.VerificationCode) error {
	task, err := NewVerificationEmailTask(code)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueVerificationCleanup enqueues a cleanup run unless one is already pending
func (c *Client) EnqueueVerificationCleanup(ctx context.Context) error {
	return c.enqueue(ctx, NewVerificationCleanupTask(c.cleanupWindow))
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		logging.FromContext(ctx).Debug("task already enqueued", "type", task.Type())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}

	logging.FromContext(ctx).Debug("task enqueued",
		"type", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

// Close closes the broker connection
func (c *Client) Close() error {
	return c.client.Close()
}
