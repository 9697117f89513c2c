package purchases

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/platform/db"
)

// TxRepository exposes the statements run inside a purchase transaction.
type TxRepository interface {
	LockProduct(ctx context.Context, userID, productID int64) (inventory.Level, error)
	SaveProduct(ctx context.Context, userID int64, level inventory.Level) error
	Insert(ctx context.Context, userID int64, p Purchase) (Purchase, error)
}

// PGRepository stores purchases in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres purchase repository.
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
		Select("p.id, p.product_id, pr.name, p.quantity, p.unit_price, p.total, p.supplier, p.note, p.occurred_at, p.created_at").
		From("purchases p").
		LeftJoin("products pr ON pr.id = p.product_id").
		Where(sq.Eq{"p.user_id": userID})
}

// List returns purchases newest first and the unpaged total. A zero limit
// returns every match.
func (r *PGRepository) List(ctx context.Context, userID int64, f ListFilter) ([]Purchase, int, error) {
	b := r.base(userID)
	if f.ProductID != nil {
		b = b.Where(sq.Eq{"p.product_id": *f.ProductID})
	}
	if f.Period != nil {
		if !f.Period.From.IsZero() {
			b = b.Where(sq.GtOrEq{"p.occurred_at": f.Period.From})
		}
		if !f.Period.To.IsZero() {
			b = b.Where(sq.Lt{"p.occurred_at": f.Period.To})
		}
	}
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, db.MapError(err, "purchases: count")
	}
	items, err := r.query(ctx, db.Page(b.OrderBy("p.occurred_at DESC", "p.id DESC"), f.Page.Page, f.Page.Limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get returns one purchase.
func (r *PGRepository) Get(ctx context.Context, userID, id int64) (Purchase, error) {
	items, err := r.query(ctx, r.base(userID).Where(sq.Eq{"p.id": id}))
	if err != nil {
		return Purchase{}, err
	}
	if len(items) == 0 {
		return Purchase{}, ErrNotFound
	}
	return items[0], nil
}

func (r *PGRepository) query(ctx context.Context, b sq.SelectBuilder) ([]Purchase, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("purchases: build query: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "purchases: query")
	}
	defer rows.Close()
	items := []Purchase{}
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.ProductID, &p.ProductName, &p.Quantity, &p.UnitPrice, &p.Total,
			&p.Supplier, &p.Note, &p.Date, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("purchases: scan: %w", err)
		}
		items = append(items, p)
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

func (t txRepo) Insert(ctx context.Context, userID int64, p Purchase) (Purchase, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchases (user_id, product_id, quantity, unit_price, total, supplier, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		userID, p.ProductID, p.Quantity, p.UnitPrice, p.Total, p.Supplier, p.Note, p.Date,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Purchase{}, db.MapError(err, "purchases: insert")
	}
	return p, nil
}
