package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/audit"
	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
)

// Service defines the read contract for the audit trail.
type Service interface {
	List(ctx context.Context, userID int64, f audit.Filters) (audit.Page, error)
	EntityHistory(ctx context.Context, userID int64, entity string, entityID int64) ([]audit.Record, error)
	Summary(ctx context.Context, userID int64) (audit.Summary, error)
}

// Handler menangani permintaan jejak audit.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
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
	filters := audit.Filters{
		Entity: strings.TrimSpace(r.URL.Query().Get("entity")),
		Action: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("action"))),
		Period: period,
		Page:   page,
	}
	result, err := h.service.List(r.Context(), userID, filters)
	if err != nil {
		h.logger.Error("audit list", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "LIST_AUDIT_ERROR")
		return
	}
	httpx.Paged(w, result.Records, result.Pagination)
}

func (h *Handler) handleEntityHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	entityID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	records, err := h.service.EntityHistory(r.Context(), userID, chi.URLParam(r, "entity"), entityID)
	if err != nil {
		h.logger.Error("audit entity history", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "ENTITY_HISTORY_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, records, "")
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		h.logger.Error("audit summary", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "AUDIT_SUMMARY_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, summary, "")
}
