// Package tasks defines the background tasks and runs them on asynq. Delivery
// is at least once: a task is acknowledged after its handler returns and is
// recovered when a worker dies mid-task, so every handler is idempotent.
package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"authd/internal/models"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeVerificationEmail   = "email:verification_code"
	TypeVerificationCleanup = "verification:cleanup"
)

const (
	// DefaultQueue is the only queue the workers consume
	DefaultQueue = "default"
	// ResultRetention is how long completed tasks are kept in Redis
	ResultRetention = 12 * time.Hour
	// MaxRetry bounds redelivery of failed tasks
	MaxRetry = 3
)

// VerificationEmailPayload is the JSON payload of TypeVerificationEmail
type VerificationEmailPayload struct {
	Email     string    `json:"email"`
	Code      int       `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Key identifies one issuance of a code. It is the task id and the delivery
// marker, and it does not expose the email or the code.
func (p VerificationEmailPayload) Key() string {
	sum := sha256.Sum256([]byte(p.Email + "|" + strconv.Itoa(p.Code) + "|" +
		strconv.FormatInt(p.ExpiresAt.UnixNano(), 10)))
	return hex.EncodeToString(sum[:16])
}

// NewVerificationEmailTask creates the task that mails code to its owner
func NewVerificationEmailTask(code *models.VerificationCode) (*asynq.Task, error) {
	payload := VerificationEmailPayload{
		Email:     code.Email,
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt.UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeVerificationEmail, data,
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(MaxRetry),
		asynq.Retention(ResultRetention),
		asynq.TaskID(TypeVerificationEmail+":"+payload.Key()),
	), nil
}

// NewVerificationCleanupTask creates the task that removes stale codes. At
// most one is pending per window.
func NewVerificationCleanupTask(window time.Duration) *asynq.Task {
	return asynq.NewTask(TypeVerificationCleanup, nil,
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(MaxRetry),
		asynq.Retention(ResultRetention),
		asynq.Unique(window),
	)
}

// ParseVerificationEmailPayload decodes the payload of TypeVerificationEmail.
// A malformed payload will never succeed, so it is not retried.
func ParseVerificationEmailPayload(t *asynq.Task) (VerificationEmailPayload, error) {
	var p VerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Email == "" || p.Code == 0 {
		return p, fmt.Errorf("invalid payload: missing email or code: %w", asynq.SkipRetry)
	}
	return p, nil
}
