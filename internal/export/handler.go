package export

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/audit"
	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

// Handler serves the Excel export endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler constructs the export handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.handleProducts)
	r.Get("/purchases", h.monthly(h.service.Purchases, "EXPORT_PURCHASES_ERROR"))
	r.Get("/sales", h.monthly(h.service.Sales, "EXPORT_SALES_ERROR"))
	r.Get("/investments", h.monthly(h.service.Investments, "EXPORT_INVESTMENTS_ERROR"))
	r.Get("/monthly-report", h.handleMonthlyReport)
	r.Get("/audit", h.handleAudit)
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	wb, err := h.service.Products(r.Context(), userID, FromRequest(r))
	h.send(w, userID, wb, err, "EXPORT_PRODUCTS_ERROR")
}

type monthlyExport func(ctx context.Context, userID int64, m Month, loc Locale) (*Workbook, error)

// monthly serves exports filtered by an optional month and year pair.
func (h *Handler) monthly(build monthlyExport, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(w, r)
		if !ok {
			return
		}
		m, err := optionalMonth(r)
		if err != nil {
			httpx.RespondError(w, err, "")
			return
		}
		wb, err := build(r.Context(), userID, m, FromRequest(r))
		h.send(w, userID, wb, err, code)
	}
}

func (h *Handler) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	month, year, err := httpx.MonthParams(r, h.now())
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	wb, err := h.service.MonthlyReport(r.Context(), userID, Month{Year: year, Month: month}, FromRequest(r))
	h.send(w, userID, wb, err, "EXPORT_MONTHLY_REPORT_ERROR")
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	period, err := httpx.PeriodFilter(r)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	q := r.URL.Query()
	f := audit.Filters{Entity: q.Get("entity"), Action: q.Get("action"), Period: period}
	wb, err := h.service.Audit(r.Context(), userID, f, FromRequest(r))
	h.send(w, userID, wb, err, "EXPORT_AUDIT_ERROR")
}

func (h *Handler) send(w http.ResponseWriter, userID int64, wb *Workbook, err error, code string) {
	if err != nil {
		h.logger.Error("export workbook", slog.Int64("user_id", userID), slog.String("code", code), slog.Any("error", err))
		httpx.RespondError(w, err, code)
		return
	}
	defer wb.Close()
	httpx.Attachment(w, ContentType, wb.Filename)
	w.WriteHeader(http.StatusOK)
	if _, err := wb.WriteTo(w); err != nil {
		h.logger.Error("write workbook", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func optionalMonth(r *http.Request) (Month, error) {
	month, err := httpx.QueryInt(r, "month", 0)
	if err != nil {
		return Month{}, err
	}
	year, err := httpx.QueryInt(r, "year", 0)
	if err != nil {
		return Month{}, err
	}
	if month == 0 && year == 0 {
		return Month{}, nil
	}
	if month < 1 || month > 12 || year < 1 {
		return Month{}, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "month (1-12) and year are required together")
	}
	return Month{Year: year, Month: month}, nil
}
