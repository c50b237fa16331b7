package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"authd/internal/api/handlers"
	"authd/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name       string
		checks     map[string]handlers.HealthCheck
		wantStatus int
		want       models.HealthResponse
	}{
		{
			name:       "All Healthy",
			checks:     map[string]handlers.HealthCheck{"database": ok, "redis": ok},
			wantStatus: http.StatusOK,
			want: models.HealthResponse{
				Status:     "healthy",
				Components: map[string]string{"database": "ok", "redis": "ok"},
			},
		},
		{
			name:       "Redis Down",
			checks:     map[string]handlers.HealthCheck{"database": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			want: models.HealthResponse{
				Status:     "unhealthy",
				Components: map[string]string{"database": "ok", "redis": "unavailable"},
			},
		},
		{
			name:       "No Checks",
			wantStatus: http.StatusOK,
			want:       models.HealthResponse{Status: "healthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", handlers.NewHealthHandler(tt.checks).Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.wantStatus, w.Code)

			var resp models.HealthResponse
			decode(t, w, &resp)
			require.Equal(t, tt.want.Status, resp.Status)
			require.Equal(t, len(tt.want.Components), len(resp.Components))
			for name, state := range tt.want.Components {
				require.Equal(t, state, resp.Components[name], name)
			}
			require.False(t, resp.Time.IsZero())
			require.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
