package investments

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/platform/db"
)

const investmentColumns = "id, name, description, amount, category, occurred_at, created_at"

// PGRepository stores investments in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres investment repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns investments newest first and the unpaged total. A zero limit
// returns every match.
func (r *PGRepository) List(ctx context.Context, userID int64, f ListFilter) ([]Investment, int, error) {
	b := db.Builder.Select(investmentColumns).From("investments").Where(sq.Eq{"user_id": userID})
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.Period != nil {
		if !f.Period.From.IsZero() {
			b = b.Where(sq.GtOrEq{"occurred_at": f.Period.From})
		}
		if !f.Period.To.IsZero() {
			b = b.Where(sq.Lt{"occurred_at": f.Period.To})
		}
	}
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, db.MapError(err, "investments: count")
	}
	sql, args, err := db.Page(b.OrderBy("occurred_at DESC", "id DESC"), f.Page.Page, f.Page.Limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("investments: build query: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, db.MapError(err, "investments: query")
	}
	defer rows.Close()
	items := []Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("investments: scan: %w", err)
		}
		items = append(items, inv)
	}
	return items, total, rows.Err()
}

// Get returns one investment.
func (r *PGRepository) Get(ctx context.Context, userID, id int64) (Investment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 AND user_id = $2`, id, userID)
	return r.one(row, "investments: get")
}

// Create inserts an investment.
func (r *PGRepository) Create(ctx context.Context, userID int64, inv Investment) (Investment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO investments (user_id, name, description, amount, category, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+investmentColumns,
		userID, inv.Name, inv.Description, inv.Amount, inv.Category, inv.Date)
	return r.one(row, "investments: insert")
}

// Save writes every mutable field of inv.
func (r *PGRepository) Save(ctx context.Context, userID int64, inv Investment) (Investment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE investments
		SET name = $3, description = $4, amount = $5, category = $6, occurred_at = $7
		WHERE id = $1 AND user_id = $2
		RETURNING `+investmentColumns,
		inv.ID, userID, inv.Name, inv.Description, inv.Amount, inv.Category, inv.Date)
	return r.one(row, "investments: update")
}

// Delete removes an investment.
func (r *PGRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM investments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "investments: delete")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) one(row pgx.Row, op string) (Investment, error) {
	inv, err := scanInvestment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Investment{}, ErrNotFound
	}
	if err != nil {
		return Investment{}, db.MapError(err, op)
	}
	return inv, nil
}

func scanInvestment(row pgx.Row) (Investment, error) {
	var inv Investment
	err := row.Scan(&inv.ID, &inv.Name, &inv.Description, &inv.Amount, &inv.Category, &inv.Date, &inv.CreatedAt)
	return inv, err
}
