package audit

import (
	"context"
	"errors"
	"time"

	"github.com/stallbook/stallbook/internal/shared"
)

// Repository menyediakan query audit yang dibutuhkan service.
type Repository interface {
	List(ctx context.Context, userID int64, f Filters) ([]Record, int, error)
	EntityHistory(ctx context.Context, userID int64, entity string, entityID int64) ([]Record, error)
	ByActions(ctx context.Context, userID int64, actions []string, limit int) ([]Record, error)
	CountByAction(ctx context.Context, userID int64, p shared.Period) ([]ActionCount, error)
}

// Page membungkus hasil daftar audit dengan informasi paging.
type Page struct {
	Records    []Record
	Pagination shared.Pagination
}

// Service mengoordinasikan pembacaan jejak audit.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService membuat service audit baru.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List mengambil data audit dengan paging.
func (s *Service) List(ctx context.Context, userID int64, f Filters) (Page, error) {
	if s.repo == nil {
		return Page{}, errors.New("audit: repository not configured")
	}
	records, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Records: records, Pagination: shared.NewPagination(f.Page.Page, f.Page.Limit, total)}, nil
}

// EntityHistory mengambil riwayat satu entitas.
func (s *Service) EntityHistory(ctx context.Context, userID int64, entity string, entityID int64) ([]Record, error) {
	if entity == "" || entityID <= 0 {
		return nil, shared.NewError(shared.ErrValidation, "INVALID_ENTITY", "entity and positive id required")
	}
	return s.repo.EntityHistory(ctx, userID, entity, entityID)
}

// Summary menghitung aksi pada bulan berjalan.
func (s *Service) Summary(ctx context.Context, userID int64) (Summary, error) {
	now := s.now().UTC()
	period, err := shared.MonthPeriod(now.Year(), int(now.Month()), time.UTC)
	if err != nil {
		return Summary{}, err
	}
	counts, err := s.repo.CountByAction(ctx, userID, period)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Month: int(now.Month()), Year: now.Year(), Actions: counts}
	for _, c := range counts {
		sum.Total += c.Count
	}
	return sum, nil
}

// BackupHistory mengambil riwayat backup dan restore, terbaru dahulu.
func (s *Service) BackupHistory(ctx context.Context, userID int64, limit int) ([]BackupEvent, error) {
	records, err := s.repo.ByActions(ctx, userID, []string{shared.ActionBackupCreate, shared.ActionBackupRestore}, limit)
	if err != nil {
		return nil, err
	}
	events := make([]BackupEvent, 0, len(records))
	for _, rec := range records {
		kind := BackupCreated
		if rec.Action == shared.ActionBackupRestore {
			kind = BackupRestored
		}
		events = append(events, BackupEvent{
			ID:          rec.ID,
			Kind:        kind,
			Description: rec.Description,
			Origin:      rec.Origin,
			At:          rec.CreatedAt,
		})
	}
	return events, nil
}
