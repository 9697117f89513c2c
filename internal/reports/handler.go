package reports

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

// Reporter is the service contract used by the handler.
type Reporter interface {
	Monthly(ctx context.Context, userID int64, year, month int) (Monthly, error)
	History(ctx context.Context, userID int64) ([]Monthly, error)
	Yearly(ctx context.Context, userID int64, year int) (Yearly, error)
	Timeline(ctx context.Context, userID int64, page shared.PageRequest, order string) (TimelinePage, error)
}

// Handler serves the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service Reporter
	now     func() time.Time
}

// NewHandler constructs the report handler.
func NewHandler(logger *slog.Logger, service Reporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/monthly", h.handleMonthly)
	r.Get("/monthly/history", h.handleHistory)
	r.Get("/yearly", h.handleYearly)
	r.Get("/timeline", h.handleTimeline)
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	month, year, err := httpx.MonthParams(r, h.now())
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	report, err := h.service.Monthly(r.Context(), userID, year, month)
	if err != nil {
		h.logger.Error("monthly report", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "MONTHLY_REPORT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, report, "")
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	history, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("monthly history", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "MONTHLY_HISTORY_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, history, "")
}

func (h *Handler) handleYearly(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	year, err := httpx.QueryInt(r, "year", h.now().Year())
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if year < 1 {
		httpx.Error(w, http.StatusBadRequest, "INVALID_PERIOD", "year must be positive")
		return
	}
	report, err := h.service.Yearly(r.Context(), userID, year)
	if err != nil {
		h.logger.Error("yearly report", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "YEARLY_REPORT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, report, "")
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	page, err := httpx.Page(r)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	order := r.URL.Query().Get("order")
	if order != "" && order != OrderAsc && order != OrderDesc {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "order must be asc or desc")
		return
	}
	result, err := h.service.Timeline(r.Context(), userID, page, order)
	if err != nil {
		h.logger.Error("timeline", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "TIMELINE_ERROR")
		return
	}
	httpx.Paged(w, result.Entries, result.Pagination)
}
