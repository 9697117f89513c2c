package sales

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

// Ledger is the service contract used by the handler.
type Ledger interface {
	Create(ctx context.Context, userID int64, in CreateInput) (CreateResult, error)
	List(ctx context.Context, userID int64, f ListFilter) (Page, error)
	Get(ctx context.Context, userID, id int64) (Sale, error)
	History(ctx context.Context, userID int64, p shared.Period) (History, error)
	Today(ctx context.Context, userID int64) (History, error)
}

// Handler serves the sale endpoints.
type Handler struct {
	logger  *slog.Logger
	service Ledger
	now     func() time.Time
}

// NewHandler constructs the sale handler.
func NewHandler(logger *slog.Logger, service Ledger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/history/day", h.handleToday)
	r.Get("/history/month", h.handleMonth)
	r.Get("/history/year", h.handleYear)
	r.Get("/history/range", h.handleRange)
	r.Get("/{id}", h.handleGet)
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
	productID, err := httpx.QueryInt64Ptr(r, "product_id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	result, err := h.service.List(r.Context(), userID, ListFilter{Period: period, ProductID: productID, Page: page})
	if err != nil {
		h.logger.Error("list sales", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "GET_SALES_ERROR")
		return
	}
	httpx.Paged(w, result.Sales, result.Pagination)
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
	p, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.logger.Error("create sale", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "CREATE_SALE_ERROR")
		return
	}
	httpx.OK(w, http.StatusCreated, p, "sale recorded")
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
	p, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err, "GET_SALE_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, p, "")
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	h.respondHistory(w, r, userID, func(ctx context.Context) (History, error) {
		return h.service.Today(ctx, userID)
	})
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
	period, err := shared.MonthPeriod(year, month, time.UTC)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	h.respondHistory(w, r, userID, func(ctx context.Context) (History, error) {
		return h.service.History(ctx, userID, period)
	})
}

func (h *Handler) handleYear(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	year, err := httpx.QueryInt(r, "year", h.now().Year())
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	period, err := shared.YearPeriod(year, time.UTC)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	h.respondHistory(w, r, userID, func(ctx context.Context) (History, error) {
		return h.service.History(ctx, userID, period)
	})
}

func (h *Handler) handleRange(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	period, err := httpx.RequiredRange(r)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	h.respondHistory(w, r, userID, func(ctx context.Context) (History, error) {
		return h.service.History(ctx, userID, period)
	})
}

func (h *Handler) respondHistory(w http.ResponseWriter, r *http.Request, userID int64, load func(context.Context) (History, error)) {
	history, err := load(r.Context())
	if err != nil {
		h.logger.Error("sale history", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "SALE_HISTORY_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, history, "")
}
