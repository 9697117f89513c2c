package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

const (
	testSecret = "test-secret-with-enough-length-123"
	testIssuer = "stallbook-id"
)

func sign(t *testing.T, secret, issuer, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestVerifier(t *testing.T) {
	v := auth.NewVerifier(testSecret, testIssuer)

	id, err := v.Verify(sign(t, testSecret, testIssuer, "42", time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	_, err = v.Verify(sign(t, testSecret, testIssuer, "42", -time.Minute))
	require.ErrorIs(t, err, auth.ErrTokenExpired)

	_, err = v.Verify(sign(t, "another-secret-entirely-000000000", testIssuer, "42", time.Hour))
	require.ErrorIs(t, err, auth.ErrTokenInvalid)

	_, err = v.Verify(sign(t, testSecret, "someone-else", "42", time.Hour))
	require.ErrorIs(t, err, auth.ErrTokenInvalid)

	_, err = v.Verify(sign(t, testSecret, testIssuer, "not-a-number", time.Hour))
	require.ErrorIs(t, err, auth.ErrTokenInvalid)
}

type stubRepo struct {
	users map[int64]*auth.User
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func newRouter(repo auth.Repository) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(auth.Middleware(auth.NewVerifier(testSecret, testIssuer)))
	r.Route("/auth", auth.NewHandler(logger, repo).MountRoutes)
	return r
}

func call(t *testing.T, h http.Handler, token string) (int, httpx.Envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestMiddlewareCodes(t *testing.T) {
	h := newRouter(&stubRepo{})

	status, env := call(t, h, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "MISSING_TOKEN", env.Code)

	status, env = call(t, h, sign(t, testSecret, testIssuer, "1", -time.Minute))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "TOKEN_EXPIRED", env.Code)

	status, env = call(t, h, "garbage")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "INVALID_TOKEN", env.Code)
}

func TestMe(t *testing.T) {
	repo := &stubRepo{users: map[int64]*auth.User{
		7: {ID: 7, Name: "Ana", Email: "ana@example.com"},
	}}
	h := newRouter(repo)

	status, env := call(t, h, sign(t, testSecret, testIssuer, strconv.Itoa(7), time.Hour))
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)
	data := env.Data.(map[string]any)
	require.Equal(t, "ana@example.com", data["email"])

	status, env = call(t, h, sign(t, testSecret, testIssuer, "8", time.Hour))
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "USER_NOT_FOUND", env.Code)
}
