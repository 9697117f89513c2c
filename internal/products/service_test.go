package products

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/platform/cache"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordingAudit) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryRepo()
	rec := &recordingAudit{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, rec, cache.NewVersioned(client, time.Minute), logger), repo, rec
}

func TestServiceCreateUpdateDelete(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, 1, CreateInput{Name: "  Soap ", Stock: 3, MinStock: 1, SalePrice: decimal.NewFromInt(3)})
	require.NoError(t, err)
	require.Equal(t, "Soap", p.Name)

	stock := 10
	updated, err := svc.Update(ctx, 1, p.ID, UpdateInput{Stock: &stock})
	require.NoError(t, err)
	require.Equal(t, 10, updated.Stock)
	require.Equal(t, "Soap", updated.Name)
	require.True(t, decimal.NewFromInt(3).Equal(updated.SalePrice))

	require.NoError(t, svc.Delete(ctx, 1, p.ID))
	_, err = svc.Get(ctx, 1, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Len(t, rec.entries, 3)
	require.Equal(t, shared.ActionCreate, rec.entries[0].Action)
	require.Nil(t, rec.entries[0].Before)
	require.Equal(t, shared.ActionUpdate, rec.entries[1].Action)
	require.NotNil(t, rec.entries[1].Before)
	require.NotNil(t, rec.entries[1].After)
	require.Equal(t, shared.ActionDelete, rec.entries[2].Action)
	require.Equal(t, p.ID, *rec.entries[2].EntityID)
}

func TestServiceIsolatesUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, 1, CreateInput{Name: "Mine"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 2, p.ID), shared.ErrNotFound)
}

func TestLowStockIsCachedUntilWrite(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, 1, CreateInput{Name: "Candle", Stock: 1, MinStock: 5})
	require.NoError(t, err)

	first, err := svc.LowStock(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	_, err = svc.LowStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls["low"])

	_, err = svc.Create(ctx, 1, CreateInput{Name: "Mug", Stock: 0, MinStock: 2})
	require.NoError(t, err)
	second, err := svc.LowStock(ctx, 1)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, "Mug", second[0].Name)
	require.Equal(t, 2, repo.calls["low"])
}

func TestListPaginates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, 1, CreateInput{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 1, ListFilter{Page: shared.PageRequest{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.Equal(t, "a", page.Products[0].Name)
	require.Equal(t, 3, page.Pagination.Total)
	require.Equal(t, 2, page.Pagination.TotalPages)
}

func serve(t *testing.T, svc Catalog, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/products", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateValidates(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec := serve(t, svc, http.MethodPost, "/products", `{"name":"","stock":-1,"sale_price":"-2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, httpx.CodeValidation, env.Code)
	require.Contains(t, env.Message, "name (required)")
	require.Contains(t, env.Message, "stock (gte=0)")
	require.Contains(t, env.Message, "sale_price (gte=0)")

	rec = serve(t, svc, http.MethodPost, "/products", `{"name":"Soap","stock":4,"min_stock":1,"purchase_price":"1.20","sale_price":"2.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandlerNotFoundCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec := serve(t, svc, http.MethodGet, "/products/77", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "PRODUCT_NOT_FOUND", env.Code)

	rec = serve(t, svc, http.MethodPut, "/products/abc", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
