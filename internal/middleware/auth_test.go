package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agency-ledger/internal/auth"
)

const testSecret = "middleware-test-secret"

func okHandler(t *testing.T, want *auth.Actor) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want != nil {
			got, ok := auth.ActorFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, *want, got)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	actor := auth.Actor{ID: uuid.New(), Role: auth.RoleStaff}
	valid, err := auth.GenerateToken(actor, testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken(actor, testSecret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(testSecret)(okHandler(t, &actor))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       auth.Role
		wantStatus int
	}{
		{"admin allowed", auth.RoleAdmin, http.StatusNoContent},
		{"staff allowed", auth.RoleStaff, http.StatusNoContent},
		{"agency forbidden", auth.RoleAgency, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole(auth.RoleAdmin, auth.RoleStaff)(okHandler(t, nil))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil)
			req = req.WithContext(auth.ContextWithActor(req.Context(), auth.Actor{ID: uuid.New(), Role: tt.role}))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole_NoActor(t *testing.T) {
	h := RequireRole(auth.RoleAdmin)(okHandler(t, nil))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/overview", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
