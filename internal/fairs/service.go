package fairs

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/shared"
)

// Repository abstracts fair report persistence for the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, userID int64, page shared.PageRequest) ([]Report, int, error)
	Get(ctx context.Context, userID, id int64) (Report, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Invalidator drops the user's cached views.
type Invalidator interface {
	Bump(ctx context.Context, scope string) error
}

// Page is one page of reports.
type Page struct {
	Reports    []Report
	Pagination shared.Pagination
}

// Service writes and reads fair reports.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  Invalidator
	logger *slog.Logger
}

// NewService constructs the fair report service. cache may be nil.
func NewService(repo Repository, recorder shared.AuditRecorder, cache Invalidator, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: recorder, cache: cache, logger: logger}
}

// Create prices every item at the product's current prices and stores the
// report with its totals. Stock is not touched.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Report, error) {
	var out Report
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rep := Report{
			FairName:     strings.TrimSpace(in.FairName),
			FairDate:     in.FairDate.UTC(),
			BoothCost:    in.BoothCost,
			MiscExpenses: in.MiscExpenses,
			Note:         in.Note,
		}
		for _, item := range in.Items {
			level, err := tx.Product(ctx, userID, item.ProductID)
			if errors.Is(err, inventory.ErrProductNotFound) {
				return shared.NewError(shared.ErrNotFound, inventory.ErrProductNotFound.Code, "product %d not found", item.ProductID)
			}
			if err != nil {
				return err
			}
			rep.Items = append(rep.Items, line(level, item.Quantity))
		}
		tally(&rep)

		stored, err := tx.InsertReport(ctx, userID, rep)
		if err != nil {
			return err
		}
		stored.Items = make([]Item, 0, len(rep.Items))
		for _, it := range rep.Items {
			saved, err := tx.InsertItem(ctx, stored.ID, it)
			if err != nil {
				return err
			}
			stored.Items = append(stored.Items, saved)
		}
		out = stored
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	s.changed(ctx, userID, shared.ActionCreate, out.ID, nil, out, "fair report created: "+out.FairName)
	return out, nil
}

// List returns a page of reports.
func (s *Service) List(ctx context.Context, userID int64, page shared.PageRequest) (Page, error) {
	page = page.Normalize()
	reports, total, err := s.repo.List(ctx, userID, page)
	if err != nil {
		return Page{}, err
	}
	return Page{Reports: reports, Pagination: shared.NewPagination(page.Page, page.Limit, total)}, nil
}

// Get returns a report with its items.
func (s *Service) Get(ctx context.Context, userID, id int64) (Report, error) {
	return s.repo.Get(ctx, userID, id)
}

// Delete removes a report and its items.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	before, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, shared.ActionDelete, id, before, nil, "fair report deleted: "+before.FairName)
	return nil
}

func (s *Service) changed(ctx context.Context, userID int64, action string, id int64, before, after any, description string) {
	entry := shared.AuditEntry{
		UserID:      shared.Int64Ptr(userID),
		Action:      action,
		Entity:      shared.EntityFairReport,
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
			s.logger.WarnContext(ctx, "fairs: cache bump failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}
