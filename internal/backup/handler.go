package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/audit"
	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
)

const (
	rateLimit  = 5
	rateWindow = time.Minute

	defaultHistoryLimit = 10
	// DefaultMaxBytes bounds a restore body when no limit is configured.
	DefaultMaxBytes int64 = 10 << 20
)

// Exporter builds snapshots.
type Exporter interface {
	Export(ctx context.Context, userID int64, origin string) (*Snapshot, error)
}

// Importer restores snapshots.
type Importer interface {
	Restore(ctx context.Context, userID int64, doc *Snapshot, origin string) (RestoreResult, error)
}

// HistorySource lists past export and restore events.
type HistorySource interface {
	BackupHistory(ctx context.Context, userID int64, limit int) ([]audit.BackupEvent, error)
}

// Handler serves the backup endpoints.
type Handler struct {
	logger   *slog.Logger
	exporter Exporter
	importer Importer
	history  HistorySource
	maxBytes int64
	now      func() time.Time
}

// NewHandler constructs the backup handler. maxBytes <= 0 selects DefaultMaxBytes.
func NewHandler(logger *slog.Logger, exporter Exporter, importer Importer, history HistorySource, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{
		logger:   logger,
		exporter: exporter,
		importer: importer,
		history:  history,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// MountRoutes registers the backup endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/history", h.handleHistory)
	r.Group(func(gr chi.Router) {
		gr.Use(httpx.UserLimiter(rateLimit, rateWindow))
		gr.Post("/export", h.handleExport)
		gr.Get("/export", h.handleExport)
		gr.Post("/restore", h.handleRestore)
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	doc, err := h.exporter.Export(r.Context(), userID, httpx.ClientIP(r))
	if err != nil {
		httpx.RespondError(w, err, CodeCreateError)
		return
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		h.logger.Error("backup export encode", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, CodeCreateError, ErrExportFailed.Message)
		return
	}
	filename := fmt.Sprintf("backup_%d_%d.json", userID, h.now().UnixMilli())
	httpx.Attachment(w, "application/json", filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	var doc Snapshot
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, CodeTooLarge, fmt.Sprintf("backup exceeds %d bytes", h.maxBytes))
			return
		}
		httpx.Error(w, http.StatusBadRequest, CodeInvalidFormat, "backup is not a valid JSON document")
		return
	}
	result, err := h.importer.Restore(r.Context(), userID, &doc, httpx.ClientIP(r))
	if err != nil {
		httpx.RespondError(w, err, CodeRestoreError)
		return
	}
	httpx.OK(w, http.StatusOK, result, "backup restored")
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	limit, err := httpx.QueryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		httpx.RespondError(w, err, "")
		return
	}
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	events, err := h.history.BackupHistory(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("backup history", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "BACKUP_HISTORY_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, events, "")
}
