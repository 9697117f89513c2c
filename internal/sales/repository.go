package sales

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/platform/db"
)

// TxRepository exposes the statements run inside a sale transaction.
type TxRepository interface {
	LockProduct(ctx context.Context, userID, productID int64) (inventory.Level, error)
	SaveProduct(ctx context.Context, userID int64, level inventory.Level) error
	Insert(ctx context.Context, userID int64, p Sale) (Sale, error)
}

// PGRepository stores sales in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres sale repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn in a read-committed transaction; the product row lock
// serializes concurrent stock changes.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, txRepo{tx: tx})
	})
}

func (r *PGRepository) base(userID int64) sq.SelectBuilder {
	return db.Builder.
		Select("s.id, s.product_id, pr.name, s.quantity, s.unit_price, s.total, s.note, s.occurred_at, s.created_at").
		From("sales s").
		LeftJoin("products pr ON pr.id = s.product_id").
		Where(sq.Eq{"s.user_id": userID})
}

// List returns sales newest first and the unpaged total. A zero limit
// returns every match.
func (r *PGRepository) List(ctx context.Context, userID int64, f ListFilter) ([]Sale, int, error) {
	b := r.base(userID)
	if f.ProductID != nil {
		b = b.Where(sq.Eq{"s.product_id": *f.ProductID})
	}
	if f.Period != nil {
		if !f.Period.From.IsZero() {
			b = b.Where(sq.GtOrEq{"s.occurred_at": f.Period.From})
		}
		if !f.Period.To.IsZero() {
			b = b.Where(sq.Lt{"s.occurred_at": f.Period.To})
		}
	}
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, db.MapError(err, "sales: count")
	}
	items, err := r.query(ctx, db.Page(b.OrderBy("s.occurred_at DESC", "s.id DESC"), f.Page.Page, f.Page.Limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get returns one sale.
func (r *PGRepository) Get(ctx context.Context, userID, id int64) (Sale, error) {
	items, err := r.query(ctx, r.base(userID).Where(sq.Eq{"s.id": id}))
	if err != nil {
		return Sale{}, err
	}
	if len(items) == 0 {
		return Sale{}, ErrNotFound
	}
	return items[0], nil
}

func (r *PGRepository) query(ctx context.Context, b sq.SelectBuilder) ([]Sale, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sales: build query: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "sales: query")
	}
	defer rows.Close()
	items := []Sale{}
	for rows.Next() {
		var v Sale
		if err := rows.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.Quantity, &v.UnitPrice, &v.Total,
			&v.Note, &v.Date, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("sales: scan: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t txRepo) LockProduct(ctx context.Context, userID, productID int64) (inventory.Level, error) {
	return inventory.Lock(ctx, t.tx, userID, productID)
}

func (t txRepo) SaveProduct(ctx context.Context, userID int64, level inventory.Level) error {
	return inventory.Save(ctx, t.tx, userID, level)
}

func (t txRepo) Insert(ctx context.Context, userID int64, s Sale) (Sale, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales (user_id, product_id, quantity, unit_price, total, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		userID, s.ProductID, s.Quantity, s.UnitPrice, s.Total, s.Note, s.Date,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return Sale{}, db.MapError(err, "sales: insert")
	}
	return s, nil
}
