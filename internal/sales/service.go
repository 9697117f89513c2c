package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/shared"
)

// Repository abstracts sale persistence for the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, userID int64, f ListFilter) ([]Sale, int, error)
	Get(ctx context.Context, userID, id int64) (Sale, error)
}

// Invalidator drops the user's cached views.
type Invalidator interface {
	Bump(ctx context.Context, scope string) error
}

// Page is one page of sales.
type Page struct {
	Sales      []Sale
	Pagination shared.Pagination
}

// Service records sales.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  Invalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the sale service. cache may be nil.
func NewService(repo Repository, recorder shared.AuditRecorder, cache Invalidator, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: recorder, cache: cache, logger: logger, now: time.Now}
}

// Create records a sale and lowers the product's stock. It fails with
// INSUFFICIENT_STOCK when the product holds fewer units than requested.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (CreateResult, error) {
	var (
		out   Sale
		level inventory.Level
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		level, err = tx.LockProduct(ctx, userID, in.ProductID)
		if err != nil {
			return err
		}
		level, err = inventory.Issue(level, in.Quantity)
		if err != nil {
			return err
		}
		if err := tx.SaveProduct(ctx, userID, level); err != nil {
			return err
		}
		name := level.Name
		out, err = tx.Insert(ctx, userID, Sale{
			ProductID:   shared.Int64Ptr(level.ProductID),
			ProductName: &name,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
			Note:        in.Note,
			Date:        in.Date.OrNow(s.now()).UTC(),
		})
		return err
	})
	if err != nil {
		return CreateResult{}, err
	}

	s.audit.Record(ctx, shared.AuditEntry{
		UserID:      shared.Int64Ptr(userID),
		Action:      shared.ActionSale,
		Entity:      shared.EntitySale,
		EntityID:    shared.Int64Ptr(out.ID),
		After:       shared.AuditState(out),
		Description: fmt.Sprintf("sale of %d x %s", out.Quantity, level.Name),
	})
	if s.cache != nil {
		if err := s.cache.Bump(ctx, shared.CacheScope(userID)); err != nil {
			s.logger.WarnContext(ctx, "sales: cache bump failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}

	result := CreateResult{Sale: out, RemainingStock: level.Stock}
	if level.Low() {
		result.LowStockWarning = true
		result.WarningMessage = fmt.Sprintf("%s is low on stock: %d left (minimum %d)", level.Name, level.Stock, level.MinStock)
	}
	return result, nil
}

// List returns a page of sales.
func (s *Service) List(ctx context.Context, userID int64, f ListFilter) (Page, error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Sales: items, Pagination: shared.NewPagination(f.Page.Page, f.Page.Limit, total)}, nil
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, userID, id int64) (Sale, error) {
	return s.repo.Get(ctx, userID, id)
}

// History returns every sale inside p.
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

// All returns every sale, newest first.
func (s *Service) All(ctx context.Context, userID int64) ([]Sale, error) {
	items, _, err := s.repo.List(ctx, userID, ListFilter{})
	return items, err
}
