package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// user id in the request context.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				httpx.Error(w, http.StatusUnauthorized, "MISSING_TOKEN", "authorization bearer token required")
				return
			}
			userID, err := verifier.Verify(strings.TrimSpace(raw))
			switch {
			case errors.Is(err, ErrTokenExpired):
				httpx.Error(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
				return
			case err != nil:
				httpx.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "token invalid")
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUserID(r.Context(), userID)))
		})
	}
}

// UserID returns the authenticated user id or writes a 401.
func UserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "MISSING_TOKEN", "authentication required")
		return 0, false
	}
	return id, true
}
