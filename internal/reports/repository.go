package reports

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/platform/db"
	"github.com/stallbook/stallbook/internal/shared"
)

// flows is every money movement of one user as (kind, id, description,
// amount, occurred_at).
const flows = `WITH flows AS (
	SELECT 'sale' AS kind, s.id, COALESCE(pr.name, 'sale') AS description, s.total AS amount, s.occurred_at
	FROM sales s LEFT JOIN products pr ON pr.id = s.product_id
	WHERE s.user_id = ?
	UNION ALL
	SELECT 'purchase', p.id, COALESCE(pr.name, 'purchase'), p.total, p.occurred_at
	FROM purchases p LEFT JOIN products pr ON pr.id = p.product_id
	WHERE p.user_id = ?
	UNION ALL
	SELECT 'investment', i.id, i.name, i.amount, i.occurred_at
	FROM investments i
	WHERE i.user_id = ?
)`

const sums = `COALESCE(SUM(amount) FILTER (WHERE kind = 'sale'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'purchase'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'investment'), 0)`

// PGRepository runs report queries against Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres report repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func from(userID int64, columns ...string) sq.SelectBuilder {
	return db.Builder.Select(columns...).Prefix(flows, userID, userID, userID).From("flows")
}

func within(b sq.SelectBuilder, p *shared.Period) sq.SelectBuilder {
	if p == nil {
		return b
	}
	if !p.From.IsZero() {
		b = b.Where(sq.GtOrEq{"occurred_at": p.From})
	}
	if !p.To.IsZero() {
		b = b.Where(sq.Lt{"occurred_at": p.To})
	}
	return b
}

// Totals sums every flow inside p.
func (r *PGRepository) Totals(ctx context.Context, userID int64, p shared.Period) (Totals, error) {
	sql, args, err := within(from(userID, sums), &p).ToSql()
	if err != nil {
		return Totals{}, fmt.Errorf("reports: build totals: %w", err)
	}
	var sales, purchases, investments decimal.Decimal
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&sales, &purchases, &investments); err != nil {
		return Totals{}, db.MapError(err, "reports: totals")
	}
	return NewTotals(sales, purchases, investments), nil
}

// ByMonth returns the totals of every month with activity inside p (or ever,
// when p is nil), newest first.
func (r *PGRepository) ByMonth(ctx context.Context, userID int64, p *shared.Period) ([]Monthly, error) {
	b := from(userID,
		"EXTRACT(YEAR FROM occurred_at AT TIME ZONE 'UTC')::int AS year",
		"EXTRACT(MONTH FROM occurred_at AT TIME ZONE 'UTC')::int AS month",
		sums,
	)
	sql, args, err := within(b, p).GroupBy("year", "month").OrderBy("year DESC", "month DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("reports: build months: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "reports: months")
	}
	defer rows.Close()
	months := []Monthly{}
	for rows.Next() {
		var m Monthly
		var sales, purchases, investments decimal.Decimal
		if err := rows.Scan(&m.Year, &m.Month, &sales, &purchases, &investments); err != nil {
			return nil, fmt.Errorf("reports: scan month: %w", err)
		}
		m.Totals = NewTotals(sales, purchases, investments)
		months = append(months, m)
	}
	return months, rows.Err()
}

// Timeline returns one page of flows and the total number of flows.
func (r *PGRepository) Timeline(ctx context.Context, userID int64, page shared.PageRequest, order string) ([]Entry, int, error) {
	b := from(userID, "kind", "id", "description", "amount", "occurred_at")
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, db.MapError(err, "reports: count timeline")
	}
	direction := "DESC"
	if order == OrderAsc {
		direction = "ASC"
	}
	sql, args, err := db.Page(b.OrderBy("occurred_at "+direction, "kind", "id "+direction), page.Page, page.Limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("reports: build timeline: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, db.MapError(err, "reports: timeline")
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Kind, &e.ID, &e.Description, &e.Amount, &e.Date); err != nil {
			return nil, 0, fmt.Errorf("reports: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
