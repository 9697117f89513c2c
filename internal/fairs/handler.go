package fairs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

// Book is the service contract used by the handler.
type Book interface {
	Create(ctx context.Context, userID int64, in CreateInput) (Report, error)
	List(ctx context.Context, userID int64, page shared.PageRequest) (Page, error)
	Get(ctx context.Context, userID, id int64) (Report, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Handler serves the fair report endpoints.
type Handler struct {
	logger  *slog.Logger
	service Book
}

// NewHandler constructs the fair report handler.
func NewHandler(logger *slog.Logger, service Book) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers fair report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	page, err := httpx.Page(r)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	result, err := h.service.List(r.Context(), userID, page)
	if err != nil {
		h.logger.Error("list fair reports", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "FAIR_REPORT_LIST_ERROR")
		return
	}
	httpx.Paged(w, result.Reports, result.Pagination)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	var in CreateInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	rep, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.logger.Error("create fair report", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "FAIR_REPORT_ERROR")
		return
	}
	httpx.OK(w, http.StatusCreated, rep, "fair report created")
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	rep, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err, "FAIR_REPORT_GET_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, rep, "")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httpx.RespondError(w, err, "FAIR_REPORT_DELETE_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, nil, "fair report deleted")
}
