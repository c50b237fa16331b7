package handlers

import (
	"context"
	"net/http"

	"authd/internal/auth"
	"authd/internal/events"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/tasks"
	"authd/internal/verification"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login and token lifecycle requests
type AuthHandler struct {
	userRepo     repository.UserRepository
	authService  *auth.Service
	verification *verification.Service
	tasks        tasks.Enqueuer
	events       events.Publisher
}

// NewAuthHandler creates a new authentication handler with the given dependencies
func NewAuthHandler(
	userRepo repository.UserRepository,
	authService *auth.Service,
	verificationService *verification.Service,
	enqueuer tasks.Enqueuer,
	publisher events.Publisher,
) *AuthHandler {
	return &AuthHandler{
		userRepo:     userRepo,
		authService:  authService,
		verification: verificationService,
		tasks:        enqueuer,
		events:       publisher,
	}
}

// RequestVerificationCode godoc
// @Summary Request a verification code
// @Description Issue a one-time code for the email and queue its delivery
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.VerificationCodeRequest true "Email to verify"
// @Success 202 {object} models.VerificationCodeResponse "Code issued"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 429 {object} models.ErrorResponse "Too many code requests"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/verification-code [post]
func (h *AuthHandler) RequestVerificationCode(c *gin.Context) {
	var req models.VerificationCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Normalize()
	ctx := c.Request.Context()

	exists, err := h.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if exists {
		respondError(c, repository.ErrEmailExists)
		return
	}

	code, err := h.verification.Issue(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.tasks.EnqueueVerificationEmail(ctx, code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.VerificationCodeResponse{
		Message:   "verification code sent",
		ExpiresIn: int(h.verification.ValidFor(code).Seconds()),
	})
}

// Register godoc
// @Summary Register a new user
// @Description Create an account for an email confirmed by its verification code and return tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration details"
// @Success 201 {object} models.TokenResponse "User registered"
// @Failure 400 {object} models.ErrorResponse "Invalid request format or verification code"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 410 {object} models.ErrorResponse "Verification code expired"
// @Failure 429 {object} models.ErrorResponse "Email temporarily blocked"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Normalize()
	ctx := c.Request.Context()

	exists, err := h.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if exists {
		respondError(c, repository.ErrEmailExists)
		return
	}

	hashedPassword, err := h.authService.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	// Consuming the code, creating the user and storing the refresh token
	// commit together, so a failed registration leaves the code usable.
	var (
		outcome error
		tokens  *models.TokenResponse
	)
	err = h.userRepo.Transaction(ctx, func(ctx context.Context) error {
		if err := h.verification.Verify(ctx, req.Email, req.Code); err != nil {
			if verification.IsOutcome(err) {
				// Keep the recorded attempt or block.
				outcome = err
				return nil
			}
			return err
		}

		if err := h.userRepo.Create(ctx, user); err != nil {
			return err
		}

		var err error
		tokens, err = h.authService.IssueTokenPair(ctx, user)
		return err
	})
	if err == nil {
		err = outcome
	}
	if err != nil {
		respondError(c, err)
		return
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	h.publish(c, events.New(events.TypeUserRegistered, user.ID, user.Email))

	c.JSON(http.StatusCreated, tokens)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return access and refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.TokenResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Normalize()
	ctx := c.Request.Context()

	user, err := h.authService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	tokens, err := h.authService.IssueTokenPair(ctx, user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publish(c, events.New(events.TypeUserLoggedIn, user.ID, user.Email))

	c.JSON(http.StatusOK, tokens)
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair. The presented token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} models.TokenResponse "Tokens refreshed"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid, expired or revoked token"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, _, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout godoc
// @Summary Logout
// @Description Revoke a refresh token. Revoking an already revoked token succeeds.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} models.SuccessResponse "Logged out"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid token"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.Revoke(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publish(c, events.New(events.TypeSessionRevoked, token.UserID, ""))

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "logged out"})
}

func (h *AuthHandler) publish(c *gin.Context, event events.Event) {
	events.PublishAsync(h.events, logging.FromContext(c.Request.Context()), event)
}
