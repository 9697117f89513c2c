package investments

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
)

// Book is the service contract used by the handler.
type Book interface {
	Create(ctx context.Context, userID int64, in CreateInput) (Investment, error)
	Update(ctx context.Context, userID, id int64, in UpdateInput) (Investment, error)
	Delete(ctx context.Context, userID, id int64) error
	Get(ctx context.Context, userID, id int64) (Investment, error)
	List(ctx context.Context, userID int64, f ListFilter) (Page, error)
	Month(ctx context.Context, userID int64, year, month int) (History, error)
}

// Handler serves the investment endpoints.
type Handler struct {
	logger  *slog.Logger
	service Book
	now     func() time.Time
}

// NewHandler constructs the investment handler.
func NewHandler(logger *slog.Logger, service Book) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers investment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/categories", h.handleCategories)
	r.Get("/history/month", h.handleMonth)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
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
	period, err := httpx.PeriodFilter(r)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	category := r.URL.Query().Get("category")
	if category != "" && !validCategory(category) {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "unknown category: "+category)
		return
	}
	result, err := h.service.List(r.Context(), userID, ListFilter{Period: period, Category: category, Page: page})
	if err != nil {
		h.logger.Error("list investments", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "GET_INVESTMENTS_ERROR")
		return
	}
	httpx.Paged(w, result.Investments, result.Pagination)
}

func (h *Handler) handleCategories(w http.ResponseWriter, _ *http.Request) {
	httpx.OK(w, http.StatusOK, Categories, "")
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
	inv, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.logger.Error("create investment", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "CREATE_INVESTMENT_ERROR")
		return
	}
	httpx.OK(w, http.StatusCreated, inv, "investment recorded")
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
	inv, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err, "GET_INVESTMENT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, inv, "")
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	var in UpdateInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	inv, err := h.service.Update(r.Context(), userID, id, in)
	if err != nil {
		h.logger.Error("update investment", slog.Int64("user_id", userID), slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err, "UPDATE_INVESTMENT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, inv, "investment updated")
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
		httpx.RespondError(w, err, "DELETE_INVESTMENT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, nil, "investment deleted")
}

func (h *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	month, year, err := httpx.MonthParams(r, h.now())
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	history, err := h.service.Month(r.Context(), userID, year, month)
	if err != nil {
		h.logger.Error("investment history", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "INVESTMENT_HISTORY_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, history, "")
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

var _ Book = (*Service)(nil)
