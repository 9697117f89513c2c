package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/stallbook/stallbook/internal/shared"
)

// UserLimiter throttles heavy endpoints per authenticated user, falling back
// to the client IP for anonymous requests.
func UserLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			Error(w, http.StatusTooManyRequests, CodeRateLimited, "too many requests, try again later")
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if id, ok := shared.UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
