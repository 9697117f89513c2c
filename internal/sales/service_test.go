package sales

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	levels map[int64]inventory.Level
	owners map[int64]int64
	sales  []Sale
	seller map[int64]int64
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{levels: map[int64]inventory.Level{}, owners: map[int64]int64{}, seller: map[int64]int64{}}
}

type memoryTx struct {
	repo   *memoryRepo
	levels map[int64]inventory.Level
	sales  []Sale
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{repo: m, levels: map[int64]inventory.Level{}, sales: append([]Sale(nil), m.sales...)}
	for k, v := range m.levels {
		tx.levels[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.levels, m.sales = tx.levels, tx.sales
	return nil
}

func (t *memoryTx) LockProduct(_ context.Context, userID, productID int64) (inventory.Level, error) {
	l, ok := t.levels[productID]
	if !ok || t.repo.owners[productID] != userID {
		return inventory.Level{}, inventory.ErrProductNotFound
	}
	return l, nil
}

func (t *memoryTx) SaveProduct(_ context.Context, _ int64, l inventory.Level) error {
	t.levels[l.ProductID] = l
	return nil
}

func (t *memoryTx) Insert(_ context.Context, userID int64, s Sale) (Sale, error) {
	t.repo.nextID++
	s.ID = t.repo.nextID
	t.repo.seller[s.ID] = userID
	t.sales = append(t.sales, s)
	return s, nil
}

func (m *memoryRepo) List(_ context.Context, userID int64, f ListFilter) ([]Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Sale{}
	for i := len(m.sales) - 1; i >= 0; i-- {
		s := m.sales[i]
		if m.seller[s.ID] == userID && (f.Period == nil || f.Period.Contains(s.Date)) {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, userID, id int64) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if s.ID == id && m.seller[id] == userID {
			return s, nil
		}
	}
	return Sale{}, ErrNotFound
}

type recordingAudit struct {
	entries []shared.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, e shared.AuditEntry) {
	r.entries = append(r.entries, e)
}

func newFixture() (*Service, *memoryRepo, *recordingAudit) {
	repo := newMemoryRepo()
	repo.levels[3] = inventory.Level{ProductID: 3, Name: "Candle", Stock: 5, MinStock: 2, SalePrice: decimal.NewFromInt(6)}
	repo.owners[3] = 1
	rec := &recordingAudit{}
	svc := NewService(repo, rec, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC) }
	return svc, repo, rec
}

func TestCreateLowersStock(t *testing.T) {
	svc, repo, rec := newFixture()

	res, err := svc.Create(context.Background(), 1, CreateInput{ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("6.50")})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(13).Equal(res.Total))
	require.Equal(t, 3, res.RemainingStock)
	require.False(t, res.LowStockWarning)
	require.Empty(t, res.WarningMessage)
	require.Equal(t, 3, repo.levels[3].Stock)
	require.Equal(t, shared.ActionSale, rec.entries[0].Action)
}

func TestCreateWarnsOnLowStock(t *testing.T) {
	svc, _, _ := newFixture()

	res, err := svc.Create(context.Background(), 1, CreateInput{ProductID: 3, Quantity: 3, UnitPrice: decimal.NewFromInt(6)})
	require.NoError(t, err)
	require.Equal(t, 2, res.RemainingStock)
	require.True(t, res.LowStockWarning)
	require.Contains(t, res.WarningMessage, "Candle")
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	svc, repo, rec := newFixture()

	_, err := svc.Create(context.Background(), 1, CreateInput{ProductID: 3, Quantity: 6, UnitPrice: decimal.NewFromInt(6)})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, "INSUFFICIENT_STOCK", shared.CodeOf(err))
	require.Equal(t, 5, repo.levels[3].Stock)
	require.Empty(t, repo.sales)
	require.Empty(t, rec.entries)
}

func TestCreateUnknownProduct(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.Create(context.Background(), 2, CreateInput{ProductID: 3, Quantity: 1})
	require.Equal(t, "PRODUCT_NOT_FOUND", shared.CodeOf(err))
}

func serve(svc Ledger, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/sales", NewHandler(nil, svc).MountRoutes)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateResponse(t *testing.T) {
	svc, _, _ := newFixture()

	rec := serve(svc, http.MethodPost, "/sales", `{"product_id":3,"quantity":4,"unit_price":"6"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body.Data["low_stock_warning"])
	require.Equal(t, "Candle", body.Data["product_name"])
	require.NotEmpty(t, body.Data["warning_message"])

	rec = serve(svc, http.MethodPost, "/sales", `{"product_id":3,"quantity":4,"unit_price":"6"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "INSUFFICIENT_STOCK", env.Code)
}

func TestHandlerYearHistory(t *testing.T) {
	svc, _, _ := newFixture()
	_, err := svc.Create(context.Background(), 1, CreateInput{ProductID: 3, Quantity: 1, UnitPrice: decimal.NewFromInt(6)})
	require.NoError(t, err)

	rec := serve(svc, http.MethodGet, "/sales/history/year?year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data History `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Data.Count)

	rec = serve(svc, http.MethodGet, "/sales/history/year?year=2023", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 0, body.Data.Count)
}
