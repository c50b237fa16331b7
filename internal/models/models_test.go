package models_test

import (
	"testing"
	"time"

	"authd/internal/models"

	"github.com/stretchr/testify/require"
)

func TestVerificationCode_IsExpired(t *testing.T) {
	issuedAt := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	code := &models.VerificationCode{ExpiresAt: issuedAt.Add(10 * time.Minute)}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "Immediately After Issue", now: issuedAt, want: false},
		{name: "Five Minutes In", now: issuedAt.Add(5 * time.Minute), want: false},
		{name: "At Expiration Instant", now: issuedAt.Add(10 * time.Minute), want: false},
		{name: "Eleven Minutes In", now: issuedAt.Add(11 * time.Minute), want: true},
		{name: "Other Timezone", now: issuedAt.Add(11 * time.Minute).In(time.FixedZone("UTC+5", 5*3600)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, code.IsExpired(tt.now))
		})
	}
}

func TestVerificationCode_IsBlocked(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	until := now.Add(30 * time.Minute)

	code := &models.VerificationCode{}
	require.False(t, code.IsBlocked(now), "not blocked before blocked_until is set")

	code.BlockedUntil = &until
	require.True(t, code.IsBlocked(now))
	require.True(t, code.IsBlocked(until.Add(-time.Second)))
	require.False(t, code.IsBlocked(until), "block ends at blocked_until")
	require.False(t, code.IsBlocked(until.Add(time.Minute)))
}

func TestVerificationCode_ValidFor(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	code := &models.VerificationCode{ExpiresAt: now.Add(10 * time.Minute)}

	require.Equal(t, 10*time.Minute, code.ValidFor(now))
	require.Equal(t, 4*time.Minute, code.ValidFor(now.Add(6*time.Minute)))
	require.Zero(t, code.ValidFor(now.Add(time.Hour)))
}

func TestToken_IsValid(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	refreshTTL := 7 * 24 * time.Hour

	tests := []struct {
		name  string
		token models.Token
		at    time.Time
		want  bool
	}{
		{
			name:  "Fresh Token",
			token: models.Token{ExpiresAt: now.Add(refreshTTL)},
			at:    now,
			want:  true,
		},
		{
			name:  "Just Before Expiry",
			token: models.Token{ExpiresAt: now.Add(refreshTTL)},
			at:    now.Add(refreshTTL - time.Nanosecond),
			want:  true,
		},
		{
			name:  "Exactly At Expiry",
			token: models.Token{ExpiresAt: now.Add(refreshTTL)},
			at:    now.Add(refreshTTL),
			want:  false,
		},
		{
			name:  "Revoked",
			token: models.Token{ExpiresAt: now.Add(refreshTTL), IsRevoked: true},
			at:    now,
			want:  false,
		},
		{
			name:  "Revoked And Expired",
			token: models.Token{ExpiresAt: now.Add(-time.Hour), IsRevoked: true},
			at:    now,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.token.IsValid(tt.at))
		})
	}
}

func TestToken_Revoke(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	token := models.Token{ExpiresAt: now.Add(time.Hour)}
	require.True(t, token.IsValid(now))

	token.Revoke()
	require.False(t, token.IsValid(now))
	snapshot := token

	token.Revoke()
	require.Equal(t, snapshot, token)
	require.False(t, token.IsValid(now))
}

func TestRegisterRequest_Normalize(t *testing.T) {
	req := models.RegisterRequest{Email: "John.Doe@Example.COM"}
	req.Normalize()
	require.Equal(t, "john.doe@example.com", req.Email)
}
