package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stallbook/stallbook/internal/shared"
)

type userGraph struct {
	products    []Product
	purchases   []Purchase
	sales       []Sale
	investments []Investment
	reports     []FairReport
	items       []FairReportItem
}

func (g userGraph) clone() userGraph {
	return userGraph{
		products:    append([]Product(nil), g.products...),
		purchases:   append([]Purchase(nil), g.purchases...),
		sales:       append([]Sale(nil), g.sales...),
		investments: append([]Investment(nil), g.investments...),
		reports:     append([]FairReport(nil), g.reports...),
		items:       append([]FairReportItem(nil), g.items...),
	}
}

type memState struct {
	graphs map[int64]userGraph
	nextID int64
}

func (s memState) clone() memState {
	out := memState{graphs: make(map[int64]userGraph, len(s.graphs)), nextID: s.nextID}
	for k, v := range s.graphs {
		out.graphs[k] = v.clone()
	}
	return out
}

// memStore stages every transaction on a copy and swaps it in on commit.
// Product references are checked like a foreign key.
type memStore struct {
	mu      sync.Mutex
	owners  map[int64]Owner
	state   memState
	failOn  string
	readErr error
	txBegun int
	locked  []int64
	bumpErr error
	bumped  []string
}

func newMemStore() *memStore {
	return &memStore{
		owners: map[int64]Owner{},
		state:  memState{graphs: map[int64]userGraph{}, nextID: 100},
	}
}

func (m *memStore) addUser(id int64, name, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[id] = Owner{Name: name, Email: email}
}

func (m *memStore) graph(userID int64) userGraph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.graphs[userID].clone()
}

// seed inserts rows outside a restore, honoring the given ids.
func (m *memStore) seed(userID int64, g userGraph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.graphs[userID] = g
}

func (m *memStore) Owner(_ context.Context, userID int64) (Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[userID]
	if !ok {
		return Owner{}, fmt.Errorf("owner: %w", shared.ErrNotFound)
	}
	return o, nil
}

func (m *memStore) Products(_ context.Context, userID int64) ([]Product, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.graph(userID).products, nil
}

func (m *memStore) Purchases(_ context.Context, userID int64) ([]Purchase, error) {
	return m.graph(userID).purchases, nil
}

func (m *memStore) Sales(_ context.Context, userID int64) ([]Sale, error) {
	return m.graph(userID).sales, nil
}

func (m *memStore) Investments(_ context.Context, userID int64) ([]Investment, error) {
	return m.graph(userID).investments, nil
}

func (m *memStore) FairReports(_ context.Context, userID int64) ([]FairReport, error) {
	return m.graph(userID).reports, nil
}

func (m *memStore) FairReportItems(_ context.Context, userID int64) ([]FairReportItem, error) {
	return m.graph(userID).items, nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	m.mu.Lock()
	m.txBegun++
	staged := m.state.clone()
	m.mu.Unlock()

	tx := &memTx{store: m, state: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = tx.state
	return nil
}

func (m *memStore) Bump(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bumped = append(m.bumped, scope)
	return m.bumpErr
}

var errInjected = errors.New("injected failure")

type memTx struct {
	store *memStore
	state memState
}

func (t *memTx) fail(step string) error {
	if t.store.failOn == step {
		return fmt.Errorf("%s: %w", step, errInjected)
	}
	return nil
}

func (t *memTx) productExists(id int64) bool {
	for _, g := range t.state.graphs {
		for _, p := range g.products {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

func (t *memTx) checkProduct(ref *int64) error {
	if ref != nil && !t.productExists(*ref) {
		return fmt.Errorf("product %d: %w", *ref, shared.ErrValidation)
	}
	return nil
}

func (t *memTx) id() int64 {
	t.state.nextID++
	return t.state.nextID
}

func (t *memTx) LockOwner(_ context.Context, userID int64) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.locked = append(t.store.locked, userID)
	return nil
}

func (t *memTx) DeleteOwned(_ context.Context, userID int64) error {
	if err := t.fail("delete"); err != nil {
		return err
	}
	t.state.graphs[userID] = userGraph{}
	return nil
}

func (t *memTx) InsertProduct(_ context.Context, userID int64, p Product) (int64, error) {
	if err := t.fail("product"); err != nil {
		return 0, err
	}
	g := t.state.graphs[userID]
	p.ID = t.id()
	g.products = append(g.products, p)
	t.state.graphs[userID] = g
	return p.ID, nil
}

func (t *memTx) InsertPurchase(_ context.Context, userID int64, p Purchase) error {
	if err := t.fail("purchase"); err != nil {
		return err
	}
	if err := t.checkProduct(p.ProductID); err != nil {
		return err
	}
	g := t.state.graphs[userID]
	p.ID = t.id()
	g.purchases = append(g.purchases, p)
	t.state.graphs[userID] = g
	return nil
}

func (t *memTx) InsertSale(_ context.Context, userID int64, s Sale) error {
	if err := t.fail("sale"); err != nil {
		return err
	}
	if err := t.checkProduct(s.ProductID); err != nil {
		return err
	}
	g := t.state.graphs[userID]
	s.ID = t.id()
	g.sales = append(g.sales, s)
	t.state.graphs[userID] = g
	return nil
}

func (t *memTx) InsertInvestment(_ context.Context, userID int64, inv Investment) error {
	if err := t.fail("investment"); err != nil {
		return err
	}
	g := t.state.graphs[userID]
	inv.ID = t.id()
	g.investments = append(g.investments, inv)
	t.state.graphs[userID] = g
	return nil
}

func (t *memTx) InsertFairReport(_ context.Context, userID int64, fr FairReport) (int64, error) {
	if err := t.fail("report"); err != nil {
		return 0, err
	}
	g := t.state.graphs[userID]
	fr.ID = t.id()
	g.reports = append(g.reports, fr)
	t.state.graphs[userID] = g
	return fr.ID, nil
}

func (t *memTx) InsertFairReportItem(_ context.Context, item FairReportItem) error {
	if err := t.fail("item"); err != nil {
		return err
	}
	if err := t.checkProduct(item.ProductID); err != nil {
		return err
	}
	for userID, g := range t.state.graphs {
		for _, fr := range g.reports {
			if fr.ID == item.FairReportID {
				item.ID = t.id()
				g.items = append(g.items, item)
				t.state.graphs[userID] = g
				return nil
			}
		}
	}
	return fmt.Errorf("fair report %d: %w", item.FairReportID, shared.ErrValidation)
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []shared.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, entry shared.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveRestore(outcome string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}
