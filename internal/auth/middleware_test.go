package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func protectedHandler(t *testing.T, gotClaims **Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Error("expected claims in context")
		}
		*gotClaims = claims
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareValidToken(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	var got *Claims
	handler := Middleware(testSecret, logger)(protectedHandler(t, &got))

	token := signToken(t, &Claims{
		Email: "supervisor@example.com",
		Role:  "supervisor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.Email != "supervisor@example.com" {
		t.Errorf("unexpected claims: %+v", got)
	}
	if !HasRole(got, "supervisor") {
		t.Errorf("expected supervisor role, got %q", got.Role)
	}
}

func TestMiddlewareMissingToken(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	var got *Claims
	handler := Middleware(testSecret, logger)(protectedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareWrongSecret(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	var got *Claims
	handler := Middleware(testSecret, logger)(protectedHandler(t, &got))

	token := signToken(t, &Claims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, "other-secret")

	req := httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareExpiredToken(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	var got *Claims
	handler := Middleware(testSecret, logger)(protectedHandler(t, &got))

	token := signToken(t, &Claims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareQueryParamToken(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	var got *Claims
	handler := Middleware(testSecret, logger)(protectedHandler(t, &got))

	token := signToken(t, &Claims{
		Email: "viewer@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.Role != "viewer" {
		t.Errorf("expected default viewer role, got %+v", got)
	}
}

func TestMiddlewareEmptySecretBypasses(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	var got *Claims
	handler := Middleware("", logger)(protectedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.Role != "admin" {
		t.Errorf("expected dev admin claims, got %+v", got)
	}
}
