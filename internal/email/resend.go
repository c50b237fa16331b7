package email

import (
	"context"
	"fmt"
	"time"

	"github.com/resendlabs/resend-go"
)

// ResendSender sends mail through the Resend API
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a new Resend sender
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) SendVerificationCode(ctx context.Context, to string, code int, expiresIn time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := RenderVerificationCode(code, expiresIn)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: verificationSubject,
		Html:    body,
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
