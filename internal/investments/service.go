package investments

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/stallbook/stallbook/internal/shared"
)

// Repository abstracts investment persistence for the service.
type Repository interface {
	List(ctx context.Context, userID int64, f ListFilter) ([]Investment, int, error)
	Get(ctx context.Context, userID, id int64) (Investment, error)
	Create(ctx context.Context, userID int64, inv Investment) (Investment, error)
	Save(ctx context.Context, userID int64, inv Investment) (Investment, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Invalidator drops the user's cached views.
type Invalidator interface {
	Bump(ctx context.Context, scope string) error
}

// Page is one page of investments.
type Page struct {
	Investments []Investment
	Pagination  shared.Pagination
}

// Service manages investments.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  Invalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the investment service. cache may be nil.
func NewService(repo Repository, recorder shared.AuditRecorder, cache Invalidator, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: recorder, cache: cache, logger: logger, now: time.Now}
}

// Create records an investment.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Investment, error) {
	category := in.Category
	if category == "" {
		category = DefaultCategory
	}
	inv, err := s.repo.Create(ctx, userID, Investment{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Amount:      in.Amount,
		Category:    category,
		Date:        in.Date.OrNow(s.now()).UTC(),
	})
	if err != nil {
		return Investment{}, err
	}
	s.changed(ctx, userID, shared.ActionCreate, inv.ID, nil, inv, "investment created: "+inv.Name)
	return inv, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (Investment, error) {
	before, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Investment{}, err
	}
	after, err := s.repo.Save(ctx, userID, in.Apply(before))
	if err != nil {
		return Investment{}, err
	}
	s.changed(ctx, userID, shared.ActionUpdate, id, before, after, "investment updated: "+after.Name)
	return after, nil
}

// Delete removes an investment.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	before, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, shared.ActionDelete, id, before, nil, "investment deleted: "+before.Name)
	return nil
}

// Get returns one investment.
func (s *Service) Get(ctx context.Context, userID, id int64) (Investment, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns a page of investments.
func (s *Service) List(ctx context.Context, userID int64, f ListFilter) (Page, error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Investments: items, Pagination: shared.NewPagination(f.Page.Page, f.Page.Limit, total)}, nil
}

// Month returns the investments of one month with category totals.
func (s *Service) Month(ctx context.Context, userID int64, year, month int) (History, error) {
	p, err := shared.MonthPeriod(year, month, time.UTC)
	if err != nil {
		return History{}, err
	}
	items, _, err := s.repo.List(ctx, userID, ListFilter{Period: &p})
	if err != nil {
		return History{}, err
	}
	return newHistory(p, items), nil
}

// All returns every investment, newest first.
func (s *Service) All(ctx context.Context, userID int64) ([]Investment, error) {
	items, _, err := s.repo.List(ctx, userID, ListFilter{})
	return items, err
}

func (s *Service) changed(ctx context.Context, userID int64, action string, id int64, before, after any, description string) {
	entry := shared.AuditEntry{
		UserID:      shared.Int64Ptr(userID),
		Action:      action,
		Entity:      shared.EntityInvestment,
		EntityID:    shared.Int64Ptr(id),
		Description: description,
	}
	if before != nil {
		entry.Before = shared.AuditState(before)
	}
	if after != nil {
		entry.After = shared.AuditState(after)
	}
	s.audit.Record(ctx, entry)
	if s.cache != nil {
		if err := s.cache.Bump(ctx, shared.CacheScope(userID)); err != nil {
			s.logger.WarnContext(ctx, "investments: cache bump failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}
