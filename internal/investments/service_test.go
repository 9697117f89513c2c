package investments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	rows   map[int64]Investment
	owner  map[int64]int64
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Investment{}, owner: map[int64]int64{}}
}

func (m *memoryRepo) List(_ context.Context, userID int64, f ListFilter) ([]Investment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Investment{}
	for id, inv := range m.rows {
		if m.owner[id] != userID {
			continue
		}
		if f.Category != "" && inv.Category != f.Category {
			continue
		}
		if f.Period != nil && !f.Period.Contains(inv.Date) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	total := len(out)
	if f.Page.Limit > 0 {
		start := (f.Page.Page - 1) * f.Page.Limit
		if start > total {
			start = total
		}
		end := start + f.Page.Limit
		if end > total {
			end = total
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (m *memoryRepo) Get(_ context.Context, userID, id int64) (Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[id]
	if !ok || m.owner[id] != userID {
		return Investment{}, ErrNotFound
	}
	return inv, nil
}

func (m *memoryRepo) Create(_ context.Context, userID int64, inv Investment) (Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	inv.ID = m.nextID
	inv.CreatedAt = time.Now().UTC()
	m.rows[inv.ID] = inv
	m.owner[inv.ID] = userID
	return inv, nil
}

func (m *memoryRepo) Save(_ context.Context, userID int64, inv Investment) (Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner[inv.ID] != userID {
		return Investment{}, ErrNotFound
	}
	m.rows[inv.ID] = inv
	return inv, nil
}

func (m *memoryRepo) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok || m.owner[id] != userID {
		return ErrNotFound
	}
	delete(m.rows, id)
	delete(m.owner, id)
	return nil
}

type recordingAudit struct{ entries []shared.AuditEntry }

func (r *recordingAudit) Record(_ context.Context, e shared.AuditEntry) {
	r.entries = append(r.entries, e)
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context, string) error {
	c.bumps++
	return nil
}

var fixedNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newFixture() (*Service, *memoryRepo, *recordingAudit, *countingCache) {
	repo := newMemoryRepo()
	rec := &recordingAudit{}
	c := &countingCache{}
	svc := NewService(repo, rec, c, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, rec, c
}

func day(y int, m time.Month, d int) shared.Date {
	return shared.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestCreateDefaultsCategoryAndDate(t *testing.T) {
	svc, _, rec, c := newFixture()

	inv, err := svc.Create(context.Background(), 1, CreateInput{Name: " Tent ", Amount: decimal.NewFromInt(120)})
	require.NoError(t, err)
	require.Equal(t, "Tent", inv.Name)
	require.Equal(t, DefaultCategory, inv.Category)
	require.Equal(t, fixedNow, inv.Date)
	require.Len(t, rec.entries, 1)
	require.Equal(t, shared.ActionCreate, rec.entries[0].Action)
	require.Equal(t, shared.EntityInvestment, rec.entries[0].Entity)
	require.Nil(t, rec.entries[0].Before)
	require.Equal(t, 1, c.bumps)
}

func TestUpdateIsPartial(t *testing.T) {
	svc, _, rec, _ := newFixture()
	ctx := context.Background()
	inv, err := svc.Create(ctx, 1, CreateInput{Name: "Stickers", Amount: decimal.NewFromInt(15), Category: "stickers", Date: day(2024, 4, 2)})
	require.NoError(t, err)

	amount := decimal.RequireFromString("17.50")
	updated, err := svc.Update(ctx, 1, inv.ID, UpdateInput{Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, "Stickers", updated.Name)
	require.Equal(t, "stickers", updated.Category)
	require.True(t, amount.Equal(updated.Amount))
	require.Equal(t, 2, updated.Date.Day())

	last := rec.entries[len(rec.entries)-1]
	require.Equal(t, shared.ActionUpdate, last.Action)
	require.NotNil(t, last.Before)
	require.NotNil(t, last.After)
}

func TestForeignInvestmentIsNotFound(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()
	inv, err := svc.Create(ctx, 1, CreateInput{Name: "Van", Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, inv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 2, inv.ID), shared.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 1, inv.ID))
	_, err = svc.Get(ctx, 1, inv.ID)
	require.Equal(t, "INVESTMENT_NOT_FOUND", shared.CodeOf(err))
}

func TestMonthTotalsByCategory(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()
	for _, in := range []CreateInput{
		{Name: "Booth A", Amount: decimal.NewFromInt(50), Category: "booth", Date: day(2024, 5, 1)},
		{Name: "Booth B", Amount: decimal.NewFromInt(30), Category: "booth", Date: day(2024, 5, 20)},
		{Name: "Bags", Amount: decimal.RequireFromString("9.90"), Category: "packaging", Date: day(2024, 5, 31)},
		{Name: "Fuel", Amount: decimal.NewFromInt(25), Category: "transport", Date: day(2024, 6, 1)},
	} {
		_, err := svc.Create(ctx, 1, in)
		require.NoError(t, err)
	}

	h, err := svc.Month(ctx, 1, 2024, 5)
	require.NoError(t, err)
	require.Equal(t, 3, h.Count)
	require.True(t, decimal.RequireFromString("89.90").Equal(h.Total))
	require.True(t, decimal.NewFromInt(80).Equal(h.ByCategory["booth"]))
	require.True(t, decimal.RequireFromString("9.90").Equal(h.ByCategory["packaging"]))
	require.NotContains(t, h.ByCategory, "transport")

	_, err = svc.Month(ctx, 1, 2024, 13)
	require.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestListPaginates(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := svc.Create(ctx, 1, CreateInput{Name: "Item", Amount: decimal.NewFromInt(int64(i)), Date: day(2024, 5, i)})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 1, ListFilter{Page: shared.PageRequest{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Investments, 2)
	require.Equal(t, 3, page.Investments[0].Date.Day())
	require.Equal(t, 5, page.Pagination.Total)
	require.Equal(t, 3, page.Pagination.TotalPages)
}

func serve(svc Book, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/investments", NewHandler(nil, svc).MountRoutes)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerValidation(t *testing.T) {
	svc, _, _, _ := newFixture()

	rec := serve(svc, http.MethodPost, "/investments", `{"name":"Tent","amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(svc, http.MethodPost, "/investments", `{"name":"Tent","amount":"10","category":"yachts"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, httpx.CodeValidation, env.Code)

	rec = serve(svc, http.MethodPost, "/investments", `{"name":"Tent","amount":"10","category":"booth","date":"2024-05-04"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(svc, http.MethodGet, "/investments?category=yachts", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(svc, http.MethodGet, "/investments?category=booth&month=5&year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerCategories(t *testing.T) {
	svc, _, _, _ := newFixture()

	rec := serve(svc, http.MethodGet, "/investments/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, Categories, body.Data)
}

func TestHandlerUpdateMissing(t *testing.T) {
	svc, _, _, _ := newFixture()

	rec := serve(svc, http.MethodPut, "/investments/42", `{"name":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
