package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"authd/internal/config"
	"authd/internal/models"
	"authd/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token has expired
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked indicates the refresh token was revoked
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidCredentials indicates an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// TokenTypeAccess is the value of the type claim of access tokens
const TokenTypeAccess = "access"

const refreshTokenBytes = 32

// Claims are the claims carried by access tokens
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a UUID
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Service provides authentication functionality
type Service struct {
	config config.JWTConfig
	users  repository.UserRepository
	tokens repository.TokenRepository
	now    func() time.Time
}

// NewService creates a new authentication service
func NewService(cfg config.JWTConfig, users repository.UserRepository, tokens repository.TokenRepository) *Service {
	return &Service{
		config: cfg,
		users:  users,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC() }
}

// GenerateAccessToken signs a short lived JWT for user
func (s *Service) GenerateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: user.Email,
		Type:  TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL())),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(s.config.Algorithm), claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

// ValidateAccessToken validates a JWT access token and returns its claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.config.Algorithm}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Type != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IssueRefreshToken generates and stores a new opaque refresh token
func (s *Service) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (*models.Token, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token := &models.Token{
		UserID:    userID,
		Token:     base64.RawURLEncoding.EncodeToString(b),
		ExpiresAt: s.now().Add(s.config.RefreshTokenTTL()),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

// IssueTokenPair creates an access token and a stored refresh token for user
func (s *Service) IssueTokenPair(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	accessToken, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		TokenType:    models.TokenTypeBearer,
	}, nil
}

// Authenticate checks credentials and returns the user
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Keep the timing of unknown emails close to wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.ComparePasswords(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token is revoked, so each refresh token can be used once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, *models.User, error) {
	var (
		pair *models.TokenResponse
		user *models.User
	)

	err := s.tokens.Transaction(ctx, func(ctx context.Context) error {
		stored, err := s.lookup(ctx, refreshToken)
		if err != nil {
			return err
		}

		consumed, err := s.tokens.Consume(ctx, refreshToken, s.now())
		if err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		if !consumed {
			// Lost a race with a concurrent refresh or logout.
			return ErrTokenRevoked
		}

		user, err = s.users.GetByID(ctx, stored.UserID)
		if err != nil {
			return fmt.Errorf("failed to get token owner: %w", err)
		}

		pair, err = s.IssueTokenPair(ctx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Revoke revokes a refresh token. Revoking an already revoked or expired
// token succeeds.
func (s *Service) Revoke(ctx context.Context, refreshToken string) (*models.Token, error) {
	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	stored.Revoke()
	return stored, nil
}

// RevokeAll revokes every refresh token of the user
func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.tokens.RevokeAllByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return n, nil
}

// ActiveSessions returns the user's refresh tokens that are still valid
func (s *Service) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	tokens, err := s.tokens.ListActiveByUserID(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	return tokens, nil
}

func (s *Service) lookup(ctx context.Context, refreshToken string) (*models.Token, error) {
	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	switch {
	case stored.IsRevoked:
		return nil, ErrTokenRevoked
	case !stored.IsValid(s.now()):
		return nil, ErrTokenExpired
	}
	return stored, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// ComparePasswords compares a hashed password with a plain text password
func (s *Service) ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GetUserFromContext retrieves the authenticated user from the gin context
func GetUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	if u, ok := user.(*models.User); ok {
		return u
	}
	return nil
}
