package reports

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/platform/cache"
	"github.com/stallbook/stallbook/internal/shared"
)

// Repository abstracts report queries for the service.
type Repository interface {
	Totals(ctx context.Context, userID int64, p shared.Period) (Totals, error)
	ByMonth(ctx context.Context, userID int64, p *shared.Period) ([]Monthly, error)
	Timeline(ctx context.Context, userID int64, page shared.PageRequest, order string) ([]Entry, int, error)
}

// Cache is the per-user read cache.
type Cache interface {
	FetchJSON(ctx context.Context, scope string, parts []string, dest any, loader func(context.Context) (any, error)) error
}

// TimelinePage is one page of the activity timeline.
type TimelinePage struct {
	Entries    []Entry
	Pagination shared.Pagination
}

// Service computes reports. Monthly, yearly and history views are cached
// until the user's next write.
type Service struct {
	repo  Repository
	cache Cache
}

// NewService constructs the report service. A nil cache computes every
// report on demand.
func NewService(repo Repository, c Cache) *Service {
	if c == nil {
		c = cache.NewVersioned(nil, 0)
	}
	return &Service{repo: repo, cache: c}
}

func (s *Service) cached(ctx context.Context, userID int64, parts []string, dest any, load func(context.Context) (any, error)) error {
	return s.cache.FetchJSON(ctx, shared.CacheScope(userID), append([]string{"reports"}, parts...), dest, load)
}

// Monthly returns the totals of one month.
func (s *Service) Monthly(ctx context.Context, userID int64, year, month int) (Monthly, error) {
	p, err := shared.MonthPeriod(year, month, time.UTC)
	if err != nil {
		return Monthly{}, err
	}
	var out Monthly
	err = s.cached(ctx, userID, []string{"monthly", strconv.Itoa(year), strconv.Itoa(month)}, &out, func(ctx context.Context) (any, error) {
		totals, err := s.repo.Totals(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		return Monthly{Year: year, Month: month, Totals: totals}, nil
	})
	return out, err
}

// History returns every month with activity, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]Monthly, error) {
	var out []Monthly
	err := s.cached(ctx, userID, []string{"history"}, &out, func(ctx context.Context) (any, error) {
		return s.repo.ByMonth(ctx, userID, nil)
	})
	if out == nil && err == nil {
		out = []Monthly{}
	}
	return out, err
}

// Yearly returns a year's totals and its twelve months.
func (s *Service) Yearly(ctx context.Context, userID int64, year int) (Yearly, error) {
	p, err := shared.YearPeriod(year, time.UTC)
	if err != nil {
		return Yearly{}, err
	}
	var out Yearly
	err = s.cached(ctx, userID, []string{"yearly", strconv.Itoa(year)}, &out, func(ctx context.Context) (any, error) {
		active, err := s.repo.ByMonth(ctx, userID, &p)
		if err != nil {
			return nil, err
		}
		return yearOf(year, active), nil
	})
	return out, err
}

// yearOf spreads the active months over all twelve and sums them.
func yearOf(year int, active []Monthly) Yearly {
	y := Yearly{Year: year, Months: make([]Monthly, 12)}
	for i := range y.Months {
		y.Months[i] = Monthly{Year: year, Month: i + 1, Totals: NewTotals(decimal.Zero, decimal.Zero, decimal.Zero)}
	}
	sales, purchases, investments := decimal.Zero, decimal.Zero, decimal.Zero
	for _, m := range active {
		if m.Year != year || m.Month < 1 || m.Month > 12 {
			continue
		}
		y.Months[m.Month-1] = m
		sales = sales.Add(m.TotalSales)
		purchases = purchases.Add(m.TotalPurchases)
		investments = investments.Add(m.TotalInvestments)
	}
	y.Totals = NewTotals(sales, purchases, investments)
	return y
}

// Timeline returns one page of the merged activity list.
func (s *Service) Timeline(ctx context.Context, userID int64, page shared.PageRequest, order string) (TimelinePage, error) {
	page = page.Normalize()
	if order == "" {
		order = OrderDesc
	}
	entries, total, err := s.repo.Timeline(ctx, userID, page, order)
	if err != nil {
		return TimelinePage{}, err
	}
	return TimelinePage{Entries: entries, Pagination: shared.NewPagination(page.Page, page.Limit, total)}, nil
}
