package products

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/platform/httpx"
)

// Catalog is the service contract used by the handler.
type Catalog interface {
	List(ctx context.Context, userID int64, f ListFilter) (Page, error)
	LowStock(ctx context.Context, userID int64) ([]Product, error)
	Get(ctx context.Context, userID, id int64) (Product, error)
	Create(ctx context.Context, userID int64, in CreateInput) (Product, error)
	Update(ctx context.Context, userID, id int64, in UpdateInput) (Product, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Handler serves the product endpoints.
type Handler struct {
	logger  *slog.Logger
	service Catalog
}

// NewHandler constructs the product handler.
func NewHandler(logger *slog.Logger, service Catalog) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/low-stock", h.handleLowStock)
	r.Post("/", h.handleCreate)
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
	result, err := h.service.List(r.Context(), userID, ListFilter{Search: r.URL.Query().Get("search"), Page: page})
	if err != nil {
		h.logger.Error("list products", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "GET_PRODUCTS_ERROR")
		return
	}
	httpx.Paged(w, result.Products, result.Pagination)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(w, r)
	if !ok {
		return
	}
	items, err := h.service.LowStock(r.Context(), userID)
	if err != nil {
		h.logger.Error("low stock products", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "LOW_STOCK_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, items, "")
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
		httpx.RespondError(w, err, "GET_PRODUCT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, p, "")
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
		h.logger.Error("create product", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err, "CREATE_PRODUCT_ERROR")
		return
	}
	httpx.OK(w, http.StatusCreated, p, "product created")
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
	p, err := h.service.Update(r.Context(), userID, id, in)
	if err != nil {
		httpx.RespondError(w, err, "UPDATE_PRODUCT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, p, "product updated")
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
		httpx.RespondError(w, err, "DELETE_PRODUCT_ERROR")
		return
	}
	httpx.OK(w, http.StatusOK, nil, "product deleted")
}
