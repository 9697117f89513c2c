package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/shared"
)

// Repository abstracts purchase persistence for the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, userID int64, f ListFilter) ([]Purchase, int, error)
	Get(ctx context.Context, userID, id int64) (Purchase, error)
}

// Invalidator drops the user's cached views.
type Invalidator interface {
	Bump(ctx context.Context, scope string) error
}

// Page is one page of purchases.
type Page struct {
	Purchases  []Purchase
	Pagination shared.Pagination
}

// Service records purchases.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  Invalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the purchase service. cache may be nil.
func NewService(repo Repository, recorder shared.AuditRecorder, cache Invalidator, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: recorder, cache: cache, logger: logger, now: time.Now}
}

// Create records a purchase, raises the product's stock and sets its
// purchase price to the unit price paid.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Purchase, error) {
	var out Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.LockProduct(ctx, userID, in.ProductID)
		if err != nil {
			return err
		}
		level, err = inventory.Receive(level, in.Quantity, in.UnitPrice)
		if err != nil {
			return err
		}
		if err := tx.SaveProduct(ctx, userID, level); err != nil {
			return err
		}
		out, err = tx.Insert(ctx, userID, Purchase{
			ProductID:   &level.ProductID,
			ProductName: &level.Name,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
			Supplier:    in.Supplier,
			Note:        in.Note,
			Date:        in.Date.OrNow(s.now()).UTC(),
		})
		return err
	})
	if err != nil {
		return Purchase{}, err
	}

	s.audit.Record(ctx, shared.AuditEntry{
		UserID:      shared.Int64Ptr(userID),
		Action:      shared.ActionPurchase,
		Entity:      shared.EntityPurchase,
		EntityID:    shared.Int64Ptr(out.ID),
		After:       shared.AuditState(out),
		Description: fmt.Sprintf("purchase of %d x %s", out.Quantity, *out.ProductName),
	})
	if s.cache != nil {
		if err := s.cache.Bump(ctx, shared.CacheScope(userID)); err != nil {
			s.logger.WarnContext(ctx, "purchases: cache bump failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
	return out, nil
}

// List returns a page of purchases.
func (s *Service) List(ctx context.Context, userID int64, f ListFilter) (Page, error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Purchases: items, Pagination: shared.NewPagination(f.Page.Page, f.Page.Limit, total)}, nil
}

// Get returns one purchase.
func (s *Service) Get(ctx context.Context, userID, id int64) (Purchase, error) {
	return s.repo.Get(ctx, userID, id)
}

// History returns every purchase inside p.
func (s *Service) History(ctx context.Context, userID int64, p shared.Period) (History, error) {
	items, _, err := s.repo.List(ctx, userID, ListFilter{Period: &p})
	if err != nil {
		return History{}, err
	}
	return newHistory(p, items), nil
}

// Today returns the current day's history.
func (s *Service) Today(ctx context.Context, userID int64) (History, error) {
	return s.History(ctx, userID, shared.DayPeriod(s.now().UTC()))
}

// All returns every purchase, newest first.
func (s *Service) All(ctx context.Context, userID int64) ([]Purchase, error) {
	items, _, err := s.repo.List(ctx, userID, ListFilter{})
	return items, err
}
