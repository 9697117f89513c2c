package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stallbook/stallbook/internal/shared"
)

// Restore outcomes reported to the Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Warning kinds attached to a RestoreResult.
const (
	WarnDuplicateName     = "duplicate_product_name"
	WarnUnresolvedProduct = "unresolved_product"
)

// Warning describes a reference the restore could not rebuild exactly.
type Warning struct {
	Kind    string `json:"kind"`
	Entity  string `json:"entity"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// RestoreResult summarizes a committed restore.
type RestoreResult struct {
	RestoredAt time.Time `json:"restored_at"`
	Counts     Counts    `json:"counts"`
	Warnings   []Warning `json:"warnings"`
}

// Restorer replaces a user's data with the contents of a snapshot.
type Restorer struct {
	store    Writer
	audit    shared.AuditRecorder
	cache    Invalidator
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// RestorerConfig carries the Restorer collaborators. Only Store is required.
type RestorerConfig struct {
	Store    Writer
	Audit    shared.AuditRecorder
	Cache    Invalidator
	Observer Observer
	Logger   *slog.Logger
}

// NewRestorer constructs a Restorer.
func NewRestorer(cfg RestorerConfig) *Restorer {
	r := &Restorer{
		store:    cfg.Store,
		audit:    cfg.Audit,
		cache:    cfg.Cache,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	if r.audit == nil {
		r.audit = shared.NopAuditRecorder{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Restore validates doc and then, inside one transaction holding the user's
// restore lock, deletes the user's owned rows and reinserts the snapshot,
// rewriting product and fair report references to the new ids. The previous
// data survives unchanged unless the whole sequence commits.
func (r *Restorer) Restore(ctx context.Context, userID int64, doc *Snapshot, origin string) (RestoreResult, error) {
	started := r.now()
	if err := Validate(doc); err != nil {
		r.observe(OutcomeRejected, started)
		return RestoreResult{}, err
	}

	var result RestoreResult
	err := r.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = replay(ctx, tx, userID, doc.Data)
		return err
	})
	if err != nil {
		r.observe(OutcomeFailed, started)
		r.logger.ErrorContext(ctx, "backup restore rolled back", slog.Int64("user_id", userID), slog.Any("error", err))
		return RestoreResult{}, fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	result.RestoredAt = r.now().UTC()

	if r.cache != nil {
		if err := r.cache.Bump(ctx, shared.CacheScope(userID)); err != nil {
			r.logger.WarnContext(ctx, "backup restore: cache invalidation failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
	r.audit.Record(ctx, shared.AuditEntry{
		UserID: shared.Int64Ptr(userID),
		Action: shared.ActionBackupRestore,
		Entity: shared.EntityBackup,
		After: shared.AuditState(map[string]any{
			"restored_at":       result.RestoredAt,
			"backup_created_at": doc.CreatedAt,
			"counts":            result.Counts,
			"warnings":          len(result.Warnings),
		}),
		Origin:      origin,
		Description: "backup restored",
	})
	r.observe(OutcomeSuccess, started)
	if len(result.Warnings) > 0 {
		r.logger.InfoContext(ctx, "backup restored with warnings", slog.Int64("user_id", userID), slog.Int("warnings", len(result.Warnings)))
	}
	return result, nil
}

func (r *Restorer) observe(outcome string, started time.Time) {
	if r.observer == nil {
		return
	}
	r.observer.ObserveRestore(outcome, r.now().Sub(started).Seconds())
}

// replay runs the delete and reinsert sequence on tx.
func replay(ctx context.Context, tx Tx, userID int64, data *Data) (RestoreResult, error) {
	result := RestoreResult{Warnings: []Warning{}}

	if err := tx.LockOwner(ctx, userID); err != nil {
		return result, fmt.Errorf("lock owner: %w", err)
	}
	if err := tx.DeleteOwned(ctx, userID); err != nil {
		return result, fmt.Errorf("delete owned rows: %w", err)
	}

	products := newProductMap()
	for _, p := range data.Products {
		id, err := tx.InsertProduct(ctx, userID, p)
		if err != nil {
			return result, fmt.Errorf("insert product %d: %w", p.ID, err)
		}
		products.inserted(p.Name, id)
		result.Counts.Products++
	}
	result.Warnings = append(result.Warnings, products.bind(data.Products)...)

	for _, p := range data.Purchases {
		var warn *Warning
		p.ProductID, warn = products.resolve(shared.EntityPurchase, p.ID, p.ProductID)
		if warn != nil {
			result.Warnings = append(result.Warnings, *warn)
		}
		if err := tx.InsertPurchase(ctx, userID, p); err != nil {
			return result, fmt.Errorf("insert purchase %d: %w", p.ID, err)
		}
		result.Counts.Purchases++
	}

	for _, s := range data.Sales {
		var warn *Warning
		s.ProductID, warn = products.resolve(shared.EntitySale, s.ID, s.ProductID)
		if warn != nil {
			result.Warnings = append(result.Warnings, *warn)
		}
		if err := tx.InsertSale(ctx, userID, s); err != nil {
			return result, fmt.Errorf("insert sale %d: %w", s.ID, err)
		}
		result.Counts.Sales++
	}

	for _, inv := range data.Investments {
		if err := tx.InsertInvestment(ctx, userID, inv); err != nil {
			return result, fmt.Errorf("insert investment %d: %w", inv.ID, err)
		}
		result.Counts.Investments++
	}

	reports := make(map[int64]int64, len(data.FairReports))
	for _, fr := range data.FairReports {
		id, err := tx.InsertFairReport(ctx, userID, fr)
		if err != nil {
			return result, fmt.Errorf("insert fair report %d: %w", fr.ID, err)
		}
		reports[fr.ID] = id
		result.Counts.FairReports++
	}

	for _, item := range data.FairReportItems {
		parent, ok := reports[item.FairReportID]
		if !ok {
			return result, fmt.Errorf("fair report item %d: parent report %d is not in the backup", item.ID, item.FairReportID)
		}
		item.FairReportID = parent
		var warn *Warning
		item.ProductID, warn = products.resolve("fair_report_item", item.ID, item.ProductID)
		if warn != nil {
			result.Warnings = append(result.Warnings, *warn)
		}
		if err := tx.InsertFairReportItem(ctx, item); err != nil {
			return result, fmt.Errorf("insert fair report item %d: %w", item.ID, err)
		}
		result.Counts.FairReportItems++
	}
	return result, nil
}

// productMap rebuilds old product ids from names. Each name binds to the
// first product inserted under it.
type productMap struct {
	byName map[string]int64
	byOld  map[int64]int64
}

func newProductMap() *productMap {
	return &productMap{byName: map[string]int64{}, byOld: map[int64]int64{}}
}

func (m *productMap) inserted(name string, id int64) {
	if _, ok := m.byName[name]; !ok {
		m.byName[name] = id
	}
}

func (m *productMap) bind(products []Product) []Warning {
	var warnings []Warning
	first := make(map[string]int64, len(products))
	for _, p := range products {
		newID, ok := m.byName[p.Name]
		if !ok {
			continue
		}
		m.byOld[p.ID] = newID
		if firstOld, seen := first[p.Name]; seen {
			warnings = append(warnings, Warning{
				Kind:    WarnDuplicateName,
				Entity:  shared.EntityProduct,
				ID:      p.ID,
				Message: fmt.Sprintf("product %d shares the name %q with product %d; its references now point to product %d", p.ID, p.Name, firstOld, newID),
			})
			continue
		}
		first[p.Name] = p.ID
	}
	return warnings
}

// resolve maps an old product reference. Nil stays nil. An id the snapshot
// does not know is kept verbatim and reported.
func (m *productMap) resolve(entity string, id int64, old *int64) (*int64, *Warning) {
	if old == nil {
		return nil, nil
	}
	if newID, ok := m.byOld[*old]; ok {
		return &newID, nil
	}
	kept := *old
	return &kept, &Warning{
		Kind:    WarnUnresolvedProduct,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("product %d is not in the backup; reference kept as is", kept),
	}
}
