package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenRepository_Create(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("test@example.com", "Strongpassword1@")

	tests := []struct {
		name    string
		token   models.Token
		wantErr error
	}{
		{
			name:  "Success",
			token: models.Token{UserID: user.ID, Token: "token-1", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
		{
			name:    "Duplicate Token",
			token:   models.Token{UserID: user.ID, Token: "token-1", ExpiresAt: time.Now().UTC().Add(time.Hour)},
			wantErr: repository.ErrTokenExists,
		},
		{
			name:    "Non-existent User",
			token:   models.Token{UserID: uuid.New(), Token: "token-2", ExpiresAt: time.Now().UTC().Add(time.Hour)},
			wantErr: repository.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tc.TokenRepo.Create(context.Background(), &tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, tt.token.ID)

			saved, err := tc.TokenRepo.GetByToken(context.Background(), tt.token.Token)
			require.NoError(t, err)
			require.Equal(t, user.ID, saved.UserID)
			require.False(t, saved.IsRevoked)
			require.True(t, saved.IsValid(time.Now()))
		})
	}
}

func TestTokenRepository_RevokeAndList(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("test@example.com", "Strongpassword1@")
	ctx := context.Background()

	for _, tok := range []models.Token{
		{UserID: user.ID, Token: "active-1", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		{UserID: user.ID, Token: "active-2", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		{UserID: user.ID, Token: "expired", ExpiresAt: time.Now().UTC().Add(-time.Hour)},
	} {
		tok := tok
		require.NoError(t, tc.TokenRepo.Create(ctx, &tok))
	}

	require.NoError(t, tc.TokenRepo.Revoke(ctx, "active-1"))
	// Idempotent
	require.NoError(t, tc.TokenRepo.Revoke(ctx, "active-1"))
	require.ErrorIs(t, tc.TokenRepo.Revoke(ctx, "unknown"), repository.ErrTokenNotFound)

	now := time.Now().UTC()
	active, err := tc.TokenRepo.ListActiveByUserID(ctx, user.ID, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "active-2", active[0].Token)

	all, err := tc.TokenRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)

	n, err := tc.TokenRepo.RevokeAllByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// active-2 is no longer active once its expiry has passed
	later, err := tc.TokenRepo.ListActiveByUserID(ctx, user.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Empty(t, later)

	active, err = tc.TokenRepo.ListActiveByUserID(ctx, user.ID, now)
	require.NoError(t, err)
	require.Empty(t, active)

	// Rows are kept after revocation
	all, err = tc.TokenRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestTokenRepository_ConsumeOnce(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("test@example.com", "Strongpassword1@")
	ctx := context.Background()

	tok := models.Token{UserID: user.ID, Token: "rotating", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, tc.TokenRepo.Create(ctx, &tok))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := tc.TokenRepo.Consume(ctx, "rotating", time.Now().UTC())
			require.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	var consumed int
	for ok := range results {
		if ok {
			consumed++
		}
	}
	require.Equal(t, 1, consumed)

	saved, err := tc.TokenRepo.GetByToken(ctx, "rotating")
	require.NoError(t, err)
	require.True(t, saved.IsRevoked)
}
