package products

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stallbook/stallbook/internal/shared"
)

// Repository abstracts product persistence for the service.
type Repository interface {
	List(ctx context.Context, userID int64, f ListFilter) ([]Product, int, error)
	All(ctx context.Context, userID int64) ([]Product, error)
	LowStock(ctx context.Context, userID int64) ([]Product, error)
	Get(ctx context.Context, userID, id int64) (Product, error)
	Create(ctx context.Context, userID int64, in CreateInput) (Product, error)
	Save(ctx context.Context, userID int64, p Product) (Product, error)
	Deactivate(ctx context.Context, userID, id int64) error
}

// Cache is the per-user read cache.
type Cache interface {
	FetchJSON(ctx context.Context, scope string, parts []string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context, scope string) error
}

// Page is one page of products.
type Page struct {
	Products   []Product
	Pagination shared.Pagination
}

// Service implements catalog operations.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  Cache
	logger *slog.Logger
}

// NewService constructs the product service. cache may be nil.
func NewService(repo Repository, recorder shared.AuditRecorder, cache Cache, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: recorder, cache: cache, logger: logger}
}

// List returns active products, newest first.
func (s *Service) List(ctx context.Context, userID int64, f ListFilter) (Page, error) {
	f.Page = f.Page.Normalize()
	f.Search = strings.TrimSpace(f.Search)
	items, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Products: items, Pagination: shared.NewPagination(f.Page.Page, f.Page.Limit, total)}, nil
}

// All returns every active product.
func (s *Service) All(ctx context.Context, userID int64) ([]Product, error) {
	return s.repo.All(ctx, userID)
}

// LowStock returns products at or below their minimum stock.
func (s *Service) LowStock(ctx context.Context, userID int64) ([]Product, error) {
	var items []Product
	load := func(ctx context.Context) (any, error) { return s.repo.LowStock(ctx, userID) }
	if s.cache == nil {
		return s.repo.LowStock(ctx, userID)
	}
	if err := s.cache.FetchJSON(ctx, shared.CacheScope(userID), []string{"products", "low-stock"}, &items, load); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, userID, id int64) (Product, error) {
	return s.repo.Get(ctx, userID, id)
}

// Create adds a product.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	p, err := s.repo.Create(ctx, userID, in)
	if err != nil {
		return Product{}, err
	}
	s.changed(ctx, userID, shared.ActionCreate, p.ID, nil, p, "product created: "+p.Name)
	return p, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (Product, error) {
	before, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Product{}, err
	}
	if in.Empty() {
		return before, nil
	}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	after, err := s.repo.Save(ctx, userID, in.Apply(before))
	if err != nil {
		return Product{}, err
	}
	s.changed(ctx, userID, shared.ActionUpdate, id, before, after, "product updated: "+after.Name)
	return after, nil
}

// Delete deactivates a product. Its history stays intact.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	before, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, shared.ActionDelete, id, before, nil, "product deleted: "+before.Name)
	return nil
}

func (s *Service) changed(ctx context.Context, userID int64, action string, id int64, before, after any, description string) {
	entry := shared.AuditEntry{
		UserID:      shared.Int64Ptr(userID),
		Action:      action,
		Entity:      shared.EntityProduct,
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
			s.logger.WarnContext(ctx, "products: cache bump failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}
