package middleware

import (
	"errors"
	"net/http"
	"strings"

	"authd/internal/auth"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/repository"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	authService *auth.Service
	userRepo    repository.UserRepository
}

func NewAuthMiddleware(authService *auth.Service, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// AuthRequired accepts a bearer access token and stores the user it belongs to
// under the "user" context key
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, "no authorization header")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, "invalid authorization header")
			return
		}

		claims, err := m.authService.ValidateAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abort(c, "token expired")
				return
			}
			abort(c, "invalid token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			abort(c, "invalid token claims")
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrNotFound) {
				abort(c, "user not found")
				return
			}
			logging.FromContext(c.Request.Context()).Error("failed to load user", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: msg})
}
