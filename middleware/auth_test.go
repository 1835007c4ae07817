package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/courtly/club-system/services"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, userID int, role string, expiry time.Duration) string {
	t.Helper()
	claims := services.AuthClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, testSecret, 7, services.RolePlayer, time.Hour),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, "other-secret", 7, services.RolePlayer, time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer " + signToken(t, testSecret, 7, services.RolePlayer, -time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int
			var gotRole string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = UserIDFromContext(r.Context())
				gotRole, _ = RoleFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Authenticator(testSecret)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotUserID != 7 || gotRole != services.RolePlayer {
					t.Errorf("context = user %d role %q, want user 7 role %q", gotUserID, gotRole, services.RolePlayer)
				}
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	protected := RequireRole(services.RoleOrganizer, services.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	authed := Authenticator(testSecret)(protected)

	tests := []struct {
		role       string
		wantStatus int
	}{
		{role: services.RoleOrganizer, wantStatus: http.StatusOK},
		{role: services.RoleAdmin, wantStatus: http.StatusOK},
		{role: services.RolePlayer, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, 1, tt.role, time.Hour))
			rec := httptest.NewRecorder()
			authed.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRoleWithoutAuthentication(t *testing.T) {
	protected := RequireRole(services.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
