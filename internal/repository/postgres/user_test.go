package postgres_test

import (
	"context"
	"testing"

	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	tc := testutil.NewTestContext(t)
	repo := tc.UserRepo

	tests := []struct {
		name    string
		input   models.User
		wantErr bool
		errType error
	}{
		{
			name: "Success",
			input: models.User{
				Email:     "test@example.com",
				Password:  "hash",
				FirstName: "Jane",
			},
		},
		{
			name: "With Last Name",
			input: models.User{
				Email:     "test2@example.com",
				Password:  "hash",
				FirstName: "John",
				LastName:  testutil.String("Doe"),
			},
		},
		{
			name: "Duplicate Email",
			input: models.User{
				Email:     "test@example.com",
				Password:  "hash",
				FirstName: "Jane",
			},
			wantErr: true,
			errType: repository.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(context.Background(), &tt.input)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errType != nil {
					require.ErrorIs(t, err, tt.errType)
				}
				return
			}

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, tt.input.ID)
			require.False(t, tt.input.CreatedAt.IsZero())
			require.False(t, tt.input.UpdatedAt.IsZero())

			// Verify creation
			saved, err := repo.GetByID(context.Background(), tt.input.ID)
			require.NoError(t, err)
			require.Equal(t, tt.input.Email, saved.Email)
			require.Equal(t, tt.input.FirstName, saved.FirstName)
			require.Equal(t, tt.input.LastName, saved.LastName)
		})
	}
}

func TestUserRepository_Get(t *testing.T) {
	tc := testutil.NewTestContext(t)
	user := tc.CreateTestUser("test@example.com", "Strongpassword1@")
	ctx := context.Background()

	byEmail, err := tc.UserRepo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	_, err = tc.UserRepo.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = tc.UserRepo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	exists, err := tc.UserRepo.ExistsByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = tc.UserRepo.ExistsByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestTransaction_RollsBack(t *testing.T) {
	tc := testutil.NewTestContext(t)
	ctx := context.Background()

	err := tc.UserRepo.Transaction(ctx, func(ctx context.Context) error {
		user := &models.User{Email: "rollback@example.com", Password: "hash", FirstName: "Jane"}
		if err := tc.UserRepo.Create(ctx, user); err != nil {
			return err
		}
		// A second repository joins the same transaction through ctx.
		return tc.TokenRepo.Create(ctx, &models.Token{UserID: uuid.New(), Token: "t"})
	})
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	exists, err := tc.UserRepo.ExistsByEmail(ctx, "rollback@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}
