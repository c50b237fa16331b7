package handlers_test

import (
	"net/http"
	"testing"

	"authd/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMe(t *testing.T) {
	h := newHarness(t)
	tokens := h.register("user@example.com")

	w := h.do(http.MethodGet, "/auth/me", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	var user map[string]interface{}
	decode(t, w, &user)
	require.Equal(t, "user@example.com", user["email"])
	require.Equal(t, "Jane", user["first_name"])
	require.NotContains(t, user, "password")

	w = h.do(http.MethodGet, "/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessions(t *testing.T) {
	h := newHarness(t)
	tokens := h.register("user@example.com")

	w := h.do(http.MethodPost, "/auth/login", gin.H{"email": "user@example.com", "password": strongPassword}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/auth/sessions", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []models.SessionResponse
	decode(t, w, &sessions)
	require.Len(t, sessions, 2)
	require.NotContains(t, w.Body.String(), tokens.RefreshToken)

	w = h.do(http.MethodPost, "/auth/sessions/revoke-all", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var revoked models.RevokeSessionsResponse
	decode(t, w, &revoked)
	require.EqualValues(t, 2, revoked.Revoked)

	w = h.do(http.MethodGet, "/auth/sessions", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &sessions)
	require.Empty(t, sessions)

	w = h.do(http.MethodPost, "/auth/refresh", gin.H{"refresh_token": tokens.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
