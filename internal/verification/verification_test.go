package verification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"authd/internal/config"
	"authd/internal/models"
	"authd/internal/testutil"
	"authd/internal/verification"

	"github.com/stretchr/testify/require"
)

const testEmail = "user@example.com"

var testConfig = config.VerificationConfig{
	CodeTTL:       10 * time.Minute,
	MaxRequests:   5,
	RequestWindow: time.Hour,
	BlockDuration: 30 * time.Minute,
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T) (*verification.Service, *testutil.MemoryStore, *clock) {
	t.Helper()
	store := testutil.NewMemoryStore()
	clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := verification.NewService(store.Codes(), testConfig)
	svc.SetClock(clk.Now)
	return svc, store, clk
}

func TestGenerateCode(t *testing.T) {
	const samples = 90000
	const buckets = 9

	// Bucket by leading digit; each of 1..9 covers exactly 100000 codes.
	counts := make([]int, buckets)
	for i := 0; i < samples; i++ {
		code, err := verification.GenerateCode()
		require.NoError(t, err)
		require.GreaterOrEqual(t, code, verification.MinCode)
		require.LessOrEqual(t, code, verification.MaxCode)
		counts[code/100000-1]++
	}

	// Chi-square with 8 degrees of freedom; 26.12 is the 0.999 quantile.
	expected := float64(samples) / buckets
	var chi2 float64
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	require.Less(t, chi2, 26.12, "distribution is not uniform: %v", counts)
}

func TestGenerateExpiration(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, now.Add(10*time.Minute), verification.GenerateExpiration(now, 0))
	require.Equal(t, now.Add(time.Minute), verification.GenerateExpiration(now, time.Minute))

	local := now.In(time.FixedZone("UTC+5", 5*3600))
	require.Equal(t, time.UTC, verification.GenerateExpiration(local, time.Minute).Location())
}

func TestService_Issue(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newService(t)

	code, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)
	require.GreaterOrEqual(t, code.Code, verification.MinCode)
	require.LessOrEqual(t, code.Code, verification.MaxCode)
	require.Equal(t, clk.Now().Add(10*time.Minute), code.ExpiresAt)
	require.Equal(t, 1, code.RequestCount)
	require.False(t, code.IsExpired(clk.Now()))
	require.False(t, code.IsExpired(clk.Now().Add(5*time.Minute)))
	require.True(t, code.IsExpired(clk.Now().Add(11*time.Minute)))

	// A failed attempt is reset by the next issue.
	require.ErrorIs(t, svc.Verify(ctx, testEmail, otherCode(code.Code)), verification.ErrMismatch)
	clk.Advance(time.Minute)
	again, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, code.ID, again.ID)
	require.Equal(t, 0, again.Attempts)
	require.Equal(t, 2, again.RequestCount)
	require.Equal(t, clk.Now().Add(10*time.Minute), again.ExpiresAt)

	stored, ok := store.Code(testEmail)
	require.True(t, ok)
	require.Equal(t, again.Code, stored.Code)
}

func TestService_IssueThrottle(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newService(t)

	for i := 0; i < testConfig.MaxRequests; i++ {
		_, err := svc.Issue(ctx, testEmail)
		require.NoError(t, err, "request %d", i+1)
		clk.Advance(time.Minute)
	}
	last, _ := store.Code(testEmail)

	_, err := svc.Issue(ctx, testEmail)
	require.ErrorIs(t, err, verification.ErrBlocked)
	var blocked *verification.BlockedError
	require.True(t, errors.As(err, &blocked))
	require.Equal(t, clk.Now().Add(testConfig.BlockDuration), blocked.Until)
	require.Equal(t, testConfig.BlockDuration, blocked.RetryAfter(clk.Now()))
	require.Equal(t, testConfig.BlockDuration, blocked.Remaining)

	// The refused request does not replace the code.
	stored, _ := store.Code(testEmail)
	require.Equal(t, last.Code, stored.Code)
	require.True(t, stored.IsBlocked(clk.Now()))

	clk.Advance(testConfig.BlockDuration - time.Second)
	_, err = svc.Issue(ctx, testEmail)
	require.ErrorIs(t, err, verification.ErrBlocked)

	clk.Advance(time.Second)
	code, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, 1, code.RequestCount)
	require.Nil(t, code.BlockedUntil)
	require.False(t, code.IsBlocked(clk.Now()))
}

func TestService_IssueWindowReset(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newService(t)

	for i := 0; i < testConfig.MaxRequests; i++ {
		_, err := svc.Issue(ctx, testEmail)
		require.NoError(t, err)
	}

	clk.Advance(testConfig.RequestWindow)
	code, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, 1, code.RequestCount)
	require.Equal(t, clk.Now(), code.WindowStartedAt)
}

func TestService_Verify(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(now time.Time) *models.VerificationCode
		submit   int
		advance  time.Duration
		wantErr  error
		attempts int
		deleted  bool
	}{
		{
			name:    "Not Requested",
			submit:  123456,
			wantErr: verification.ErrNotFound,
		},
		{
			name: "Success",
			setup: func(now time.Time) *models.VerificationCode {
				return &models.VerificationCode{Email: testEmail, Code: 123456, ExpiresAt: now.Add(10 * time.Minute)}
			},
			submit:  123456,
			deleted: true,
		},
		{
			name: "Mismatch",
			setup: func(now time.Time) *models.VerificationCode {
				return &models.VerificationCode{Email: testEmail, Code: 123456, Attempts: 2, ExpiresAt: now.Add(10 * time.Minute)}
			},
			submit:   654321,
			wantErr:  verification.ErrMismatch,
			attempts: 3,
		},
		{
			name: "Expired",
			setup: func(now time.Time) *models.VerificationCode {
				return &models.VerificationCode{Email: testEmail, Code: 123456, ExpiresAt: now.Add(10 * time.Minute)}
			},
			advance: 11 * time.Minute,
			submit:  123456,
			wantErr: verification.ErrExpired,
		},
		{
			name: "Expired Mismatch Is Not Counted",
			setup: func(now time.Time) *models.VerificationCode {
				return &models.VerificationCode{Email: testEmail, Code: 123456, ExpiresAt: now.Add(-time.Second)}
			},
			submit:  654321,
			wantErr: verification.ErrExpired,
		},
		{
			name: "Blocked",
			setup: func(now time.Time) *models.VerificationCode {
				until := now.Add(time.Minute)
				return &models.VerificationCode{Email: testEmail, Code: 123456, ExpiresAt: now.Add(10 * time.Minute), BlockedUntil: &until}
			},
			submit:  123456,
			wantErr: verification.ErrBlocked,
		},
		{
			name: "Block Elapsed",
			setup: func(now time.Time) *models.VerificationCode {
				until := now.Add(time.Minute)
				return &models.VerificationCode{Email: testEmail, Code: 123456, ExpiresAt: now.Add(10 * time.Minute), BlockedUntil: &until}
			},
			advance: time.Minute,
			submit:  123456,
			deleted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, clk := newService(t)

			var before models.VerificationCode
			if tt.setup != nil {
				before = *tt.setup(clk.Now())
				store.SetCode(before)
			}
			clk.Advance(tt.advance)

			err := svc.Verify(ctx, testEmail, tt.submit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			after, ok := store.Code(testEmail)
			if tt.deleted || tt.setup == nil {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.Equal(t, before.Code, after.Code)
			require.Equal(t, before.ExpiresAt, after.ExpiresAt)
			if tt.attempts > 0 {
				require.Equal(t, tt.attempts, after.Attempts)
			} else {
				require.Equal(t, before.Attempts, after.Attempts)
			}
		})
	}
}

func TestService_VerifySucceedsOnce(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	code, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Verify(ctx, testEmail, code.Code)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, verification.ErrNotFound)
	}
	require.Equal(t, 1, succeeded)
}

func TestService_ConcurrentMismatchesAreAllCounted(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	code, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Verify(ctx, testEmail, otherCode(code.Code))
		}()
	}
	wg.Wait()

	stored, _ := store.Code(testEmail)
	require.Equal(t, callers, stored.Attempts)
}

func TestService_Current(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Current(ctx, testEmail)
	require.ErrorIs(t, err, verification.ErrNotFound)

	issued, err := svc.Issue(ctx, testEmail)
	require.NoError(t, err)

	current, err := svc.Current(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, issued.Code, current.Code)
}

func TestService_Cleanup(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newService(t)
	now := clk.Now()
	blockedUntil := now.Add(time.Minute)

	store.SetCode(models.VerificationCode{Email: "stale@example.com", Code: 111111, ExpiresAt: now.Add(-25 * time.Hour)})
	store.SetCode(models.VerificationCode{Email: "recent@example.com", Code: 222222, ExpiresAt: now.Add(-time.Hour)})
	store.SetCode(models.VerificationCode{Email: "live@example.com", Code: 333333, ExpiresAt: now.Add(time.Minute)})
	store.SetCode(models.VerificationCode{Email: "blocked@example.com", Code: 444444, ExpiresAt: now.Add(-48 * time.Hour), BlockedUntil: &blockedUntil})

	deleted, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, ok := store.Code("stale@example.com")
	require.False(t, ok)
	for _, email := range []string{"recent@example.com", "live@example.com", "blocked@example.com"} {
		_, ok := store.Code(email)
		require.True(t, ok, email)
	}
}

func TestService_InfrastructureErrors(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	store.Err = errors.New("connection refused")

	_, err := svc.Issue(ctx, testEmail)
	require.ErrorContains(t, err, "connection refused")

	err = svc.Verify(ctx, testEmail, 123456)
	require.ErrorContains(t, err, "connection refused")
	require.False(t, errors.Is(err, verification.ErrNotFound))
}

func otherCode(code int) int {
	if code == verification.MaxCode {
		return verification.MinCode
	}
	return code + 1
}
