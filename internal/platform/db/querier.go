package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Builder produces Postgres ($N) placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Page applies LIMIT/OFFSET when limit is positive. An unbounded select is
// returned unchanged.
func Page(b sq.SelectBuilder, page, limit int) sq.SelectBuilder {
	if limit <= 0 {
		return b
	}
	if page < 1 {
		page = 1
	}
	return b.Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
}

// Count runs SELECT COUNT(*) over the FROM and WHERE parts of a builder.
func Count(ctx context.Context, q Querier, b sq.SelectBuilder) (int, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM ("+sql+") counted", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
