package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

// Handler wires HTTP endpoints for the authenticated account.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(w, r)
	if !ok {
		return
	}
	user, err := h.repo.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("auth me", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "GET_USER_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, user, "")
}
