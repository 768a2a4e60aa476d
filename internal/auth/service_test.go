package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gokatarajesh/question-bank/internal/config"
)

const testPassword = "correct horse battery"

func testHash(t *testing.T) string {
	t.Helper()
	// MinCost keeps the suite fast; production hashes use bcryptCost.
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newEnabledService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.Security{
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: testHash(t),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, svc)
	return svc
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NoError(t, CheckHash(hash))
	assert.NoError(t, VerifyPassword(hash, "testpassword123"))
	assert.Error(t, VerifyPassword(hash, "wrongpassword"))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestNewServiceDisabledWithoutSecret(t *testing.T) {
	svc, err := NewService(config.Security{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, svc)
	assert.False(t, svc.Enabled())

	_, err = svc.Login(context.Background(), LoginRequest{Username: "admin", Password: testPassword})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewServiceRejectsPlainPassword(t *testing.T) {
	_, err := NewService(config.Security{JWTSecret: "s", AdminPasswordHash: "hunter22"}, zerolog.Nop())
	assert.ErrorContains(t, err, "ADMIN_PASSWORD_HASH")
}

func TestLogin(t *testing.T) {
	svc := newEnabledService(t)
	ctx := context.Background()

	tokens, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = svc.Login(ctx, LoginRequest{Username: "admin", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Username: "root", Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequireAdmin(t *testing.T) {
	svc := newEnabledService(t)
	tokens, err := svc.Issue("admin")
	require.NoError(t, err)

	var seen string
	h := RequireAdmin(svc, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims.Username
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + tokens.AccessToken, http.StatusNoContent},
		{"lowercase scheme", "bearer " + tokens.AccessToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/questions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, "admin", seen)
}

func TestRequireAdminDisabledPassesThrough(t *testing.T) {
	h := RequireAdmin(nil, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/questions", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	mux := http.NewServeMux()
	NewHTTPHandlers(newEnabledService(t), zerolog.Nop()).Register(mux)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body)))
		return rec
	}

	rec := post(`{"username":"admin","password":"` + testPassword + `"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"admin","password":"bad"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"username":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{`).Code)
}

func TestLoginHandlerDisabled(t *testing.T) {
	mux := http.NewServeMux()
	NewHTTPHandlers(nil, zerolog.Nop()).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_disabled")
}
