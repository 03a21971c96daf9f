package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/sheikhshariarnehal/nesttask-edge/pkg/auth"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "nesttask-test"}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenClaims{
		UserID: userID,
		Role:   pkgAuth.RoleUser,
	}, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run without credentials")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/feed", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	var seenUser string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seenUser != userID.String() {
		t.Fatalf("expected user %s in context, got %q", userID, seenUser)
	}
}

func TestBearerTokenQueryFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/stream?access_token=abc123", nil)
	if got := BearerToken(req); got != "abc123" {
		t.Fatalf("expected query fallback token, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/stream", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	if got := BearerToken(req); got != "header-token" {
		t.Fatalf("expected header token to win, got %q", got)
	}
}
