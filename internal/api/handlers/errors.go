package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"authd/internal/auth"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/validation"
	"authd/internal/verification"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

// bindJSON binds the request body and answers 400 with the first
// validation failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: validation.Message(err)})
		return false
	}
	return true
}

// respondError maps domain errors to status codes. Anything unknown is an
// infrastructure failure and is logged, not shown.
func respondError(c *gin.Context, err error) {
	var blocked *verification.BlockedError

	switch {
	case errors.As(err, &blocked):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(blocked.Remaining.Seconds()))))
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: blocked.Error()})
	case errors.Is(err, verification.ErrExpired):
		c.JSON(http.StatusGone, models.ErrorResponse{Error: "Verification code expired"})
	case errors.Is(err, verification.ErrMismatch):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid verification code"})
	case errors.Is(err, verification.ErrNotFound):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Verification code was not requested"})
	case errors.Is(err, repository.ErrEmailExists):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "Email already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "token expired"})
	case errors.Is(err, auth.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "token revoked"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token"})
	default:
		logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal})
	}
}
