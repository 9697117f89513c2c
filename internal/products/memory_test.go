package products

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stallbook/stallbook/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	rows   map[int64]Product
	owners map[int64]int64
	nextID int64
	calls  map[string]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Product{}, owners: map[int64]int64{}, calls: map[string]int{}}
}

func (m *memoryRepo) active(userID int64) []Product {
	out := []Product{}
	for id, p := range m.rows {
		if m.owners[id] == userID && p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryRepo) List(_ context.Context, userID int64, f ListFilter) ([]Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []Product{}
	for _, p := range m.active(userID) {
		if f.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			all = append(all, p)
		}
	}
	start := (f.Page.Page - 1) * f.Page.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memoryRepo) All(_ context.Context, userID int64) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active(userID), nil
}

func (m *memoryRepo) LowStock(_ context.Context, userID int64) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["low"]++
	out := []Product{}
	for _, p := range m.active(userID) {
		if p.Stock <= p.MinStock {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, userID, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || m.owners[id] != userID || !p.Active {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, userID int64, in CreateInput) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	p := Product{
		ID: m.nextID, Name: in.Name, Description: in.Description, Stock: in.Stock, MinStock: in.MinStock,
		PurchasePrice: in.PurchasePrice, SalePrice: in.SalePrice, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	m.rows[p.ID] = p
	m.owners[p.ID] = userID
	return p, nil
}

func (m *memoryRepo) Save(_ context.Context, userID int64, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rows[p.ID]; !ok || m.owners[p.ID] != userID || !cur.Active {
		return Product{}, ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	m.rows[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Deactivate(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || m.owners[id] != userID || !p.Active {
		return ErrNotFound
	}
	p.Active = false
	m.rows[id] = p
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []shared.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, e shared.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}
