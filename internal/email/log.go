package email

import (
	"context"
	"log/slog"
	"time"
)

// LogSender writes codes to the log instead of sending them. Development only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendVerificationCode(ctx context.Context, to string, code int, expiresIn time.Duration) error {
	s.logger.InfoContext(ctx, "verification code",
		"to", to,
		"code", code,
		"expires_in", expiresIn.String(),
	)
	return nil
}
