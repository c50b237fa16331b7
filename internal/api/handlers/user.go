package handlers

import (
	"net/http"

	"authd/internal/auth"
	"authd/internal/events"
	"authd/internal/logging"
	"authd/internal/models"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the authenticated user's profile and sessions
type UserHandler struct {
	authService *auth.Service
	events      events.Publisher
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, publisher events.Publisher) *UserHandler {
	return &UserHandler{
		authService: authService,
		events:      publisher,
	}
}

// Me godoc
// @Summary Current user
// @Description Get the profile of the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListSessions godoc
// @Summary List sessions
// @Description List the refresh tokens of the authenticated user that are still valid
// @Tags users
// @Produce json
// @Success 200 {array} models.SessionResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /auth/sessions [get]
func (h *UserHandler) ListSessions(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	tokens, err := h.authService.ActiveSessions(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	sessions := make([]models.SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, models.SessionResponse{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	c.JSON(http.StatusOK, sessions)
}

// RevokeAllSessions godoc
// @Summary Revoke all sessions
// @Description Revoke every refresh token of the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} models.RevokeSessionsResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /auth/sessions/revoke-all [post]
func (h *UserHandler) RevokeAllSessions(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	revoked, err := h.authService.RevokeAll(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if revoked > 0 {
		events.PublishAsync(h.events, logging.FromContext(c.Request.Context()),
			events.New(events.TypeSessionRevoked, user.ID, user.Email))
	}

	c.JSON(http.StatusOK, models.RevokeSessionsResponse{Revoked: revoked})
}
