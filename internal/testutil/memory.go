package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"authd/internal/models"
	"authd/internal/repository"

	"github.com/google/uuid"
)

type memTxKey struct{}

// MemoryStore is an in-memory stand-in for the PostgreSQL repositories. A
// Transaction holds a store-wide lock and restores a snapshot when fn fails,
// which mirrors the serialization the advisory lock gives in production.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users  map[uuid.UUID]models.User
	codes  map[string]models.VerificationCode
	tokens map[string]models.Token

	// Err, when set, is returned by every repository call
	Err error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  map[uuid.UUID]models.User{},
		codes:  map[string]models.VerificationCode{},
		tokens: map[string]models.Token{},
	}
}

// Users returns a UserRepository backed by the store
func (s *MemoryStore) Users() repository.UserRepository { return &memUsers{s} }

// Codes returns a VerificationCodeRepository backed by the store
func (s *MemoryStore) Codes() repository.VerificationCodeRepository { return &memCodes{s} }

// Tokens returns a TokenRepository backed by the store
func (s *MemoryStore) Tokens() repository.TokenRepository { return &memTokens{s} }

// Transaction implements repository.Repository
func (s *MemoryStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	users, codes, tokens := cloneMap(s.users), cloneMap(s.codes), cloneMap(s.tokens)
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.users, s.codes, s.tokens = users, codes, tokens
		s.mu.Unlock()
		return err
	}
	return nil
}

// SetCode stores a code row as is
func (s *MemoryStore) SetCode(code models.VerificationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Email] = code
}

// Code returns the stored code row for email
func (s *MemoryStore) Code(email string) (models.VerificationCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	return c, ok
}

// TokenCount returns the number of stored refresh tokens
func (s *MemoryStore) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memUsers struct{ *MemoryStore }

func (r *memUsers) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == repository.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

type memCodes struct{ *MemoryStore }

func (r *memCodes) Lock(ctx context.Context, _ string) error {
	if ctx.Value(memTxKey{}) == nil {
		panic("verification code lock taken outside a transaction")
	}
	return r.Err
}

func (r *memCodes) GetByEmail(_ context.Context, email string) (*models.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	c, ok := r.codes[email]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	return &c, nil
}

func (r *memCodes) Save(_ context.Context, code *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	now := time.Now().UTC()
	if existing, ok := r.codes[code.Email]; ok {
		code.ID = existing.ID
		code.CreatedAt = existing.CreatedAt
	} else {
		if code.ID == uuid.Nil {
			code.ID = uuid.New()
		}
		code.CreatedAt = now
	}
	code.UpdatedAt = now
	r.codes[code.Email] = *code
	return nil
}

func (r *memCodes) IncrementAttempts(_ context.Context, email string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	c, ok := r.codes[email]
	if !ok {
		return 0, repository.ErrCodeNotFound
	}
	c.Attempts++
	r.codes[email] = c
	return c.Attempts, nil
}

func (r *memCodes) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.codes[email]; !ok {
		return repository.ErrCodeNotFound
	}
	delete(r.codes, email)
	return nil
}

func (r *memCodes) DeleteStale(_ context.Context, cutoff, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var deleted int64
	for email, c := range r.codes {
		if c.ExpiresAt.Before(cutoff) && !c.IsBlocked(now) {
			delete(r.codes, email)
			deleted++
		}
	}
	return deleted, nil
}

type memTokens struct{ *MemoryStore }

func (r *memTokens) Create(_ context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[token.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	if _, ok := r.tokens[token.Token]; ok {
		return repository.ErrTokenExists
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	now := time.Now().UTC()
	token.CreatedAt, token.UpdatedAt = now, now
	r.tokens[token.Token] = *token
	return nil
}

func (r *memTokens) GetByToken(_ context.Context, token string) (*models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	return &t, nil
}

func (r *memTokens) ListByUserID(_ context.Context, userID uuid.UUID) ([]models.Token, error) {
	return r.list(userID, func(models.Token) bool { return true })
}

func (r *memTokens) ListActiveByUserID(_ context.Context, userID uuid.UUID, now time.Time) ([]models.Token, error) {
	return r.list(userID, func(t models.Token) bool { return t.IsValid(now) })
}

func (r *memTokens) list(userID uuid.UUID, keep func(models.Token) bool) ([]models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	tokens := []models.Token{}
	for _, t := range r.tokens {
		if t.UserID == userID && keep(t) {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens, nil
}

func (r *memTokens) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	t, ok := r.tokens[token]
	if !ok {
		return repository.ErrTokenNotFound
	}
	t.Revoke()
	r.tokens[token] = t
	return nil
}

func (r *memTokens) Consume(_ context.Context, token string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	t, ok := r.tokens[token]
	if !ok || !t.IsValid(now) {
		return false, nil
	}
	t.Revoke()
	r.tokens[token] = t
	return true, nil
}

// SetToken stores a token row as is
func (s *MemoryStore) SetToken(token models.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Token] = token
}

func (r *memTokens) RevokeAllByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for k, t := range r.tokens {
		if t.UserID == userID && !t.IsRevoked {
			t.Revoke()
			r.tokens[k] = t
			n++
		}
	}
	return n, nil
}
