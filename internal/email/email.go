// Package email delivers verification codes to users
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"authd/internal/config"
)

// Sender defines the interface for sending emails
type Sender interface {
	SendVerificationCode(ctx context.Context, to string, code int, expiresIn time.Duration) error
}

const verificationSubject = "Your verification code"

var verificationTemplate = template.Must(template.New("verification").Parse(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2>Confirm your email address</h2>
		<p>Your verification code is:</p>
		<div style="background-color: #f4f4f4; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px;">
			{{.Code}}
		</div>
		<p>This code will expire in {{.Minutes}} minutes.</p>
		<p>If you did not request this code, you can ignore this email.</p>
	</div>
`))

// RenderVerificationCode renders the HTML body of the verification email
func RenderVerificationCode(code int, expiresIn time.Duration) (string, error) {
	minutes := int(expiresIn.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, map[string]interface{}{
		"Code":    fmt.Sprintf("%06d", code),
		"Minutes": minutes,
	}); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// NewSender returns the sender selected by cfg.Provider
func NewSender(cfg config.EmailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp email provider")
		}
		return NewSMTPSender(cfg), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required for the resend email provider")
		}
		return NewResendSender(cfg.ResendAPIKey, cfg.From), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Provider)
	}
}
