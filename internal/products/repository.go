package products

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/platform/db"
)

const productColumns = "id, name, description, stock, min_stock, purchase_price, sale_price, active, created_at, updated_at"

// PGRepository stores products in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres product repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) active(userID int64) sq.SelectBuilder {
	return db.Builder.Select(productColumns).From("products").
		Where(sq.Eq{"user_id": userID, "active": true})
}

// List returns active products newest first and the unpaged total.
func (r *PGRepository) List(ctx context.Context, userID int64, f ListFilter) ([]Product, int, error) {
	b := r.active(userID)
	if f.Search != "" {
		b = b.Where(sq.ILike{"name": "%" + f.Search + "%"})
	}
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, db.MapError(err, "products: count")
	}
	items, err := r.query(ctx, db.Page(b.OrderBy("created_at DESC", "id DESC"), f.Page.Page, f.Page.Limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// All returns every active product ordered by name.
func (r *PGRepository) All(ctx context.Context, userID int64) ([]Product, error) {
	return r.query(ctx, r.active(userID).OrderBy("name", "id"))
}

// LowStock returns active products at or below their minimum, scarcest first.
func (r *PGRepository) LowStock(ctx context.Context, userID int64) ([]Product, error) {
	return r.query(ctx, r.active(userID).Where("stock <= min_stock").OrderBy("stock ASC", "id"))
}

// Get returns one active product.
func (r *PGRepository) Get(ctx context.Context, userID, id int64) (Product, error) {
	items, err := r.query(ctx, r.active(userID).Where(sq.Eq{"id": id}))
	if err != nil {
		return Product{}, err
	}
	if len(items) == 0 {
		return Product{}, ErrNotFound
	}
	return items[0], nil
}

// Create inserts a product.
func (r *PGRepository) Create(ctx context.Context, userID int64, in CreateInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (user_id, name, description, stock, min_stock, purchase_price, sale_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		userID, in.Name, in.Description, in.Stock, in.MinStock, in.PurchasePrice, in.SalePrice)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, db.MapError(err, "products: insert")
	}
	return p, nil
}

// Save writes every mutable field of p.
func (r *PGRepository) Save(ctx context.Context, userID int64, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $3, description = $4, stock = $5, min_stock = $6,
		    purchase_price = $7, sale_price = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND active = TRUE
		RETURNING `+productColumns,
		p.ID, userID, p.Name, p.Description, p.Stock, p.MinStock, p.PurchasePrice, p.SalePrice)
	saved, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, db.MapError(err, "products: update")
	}
	return saved, nil
}

// Deactivate soft deletes a product.
func (r *PGRepository) Deactivate(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET active = FALSE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND active = TRUE`,
		id, userID)
	if err != nil {
		return db.MapError(err, "products: deactivate")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) query(ctx context.Context, b sq.SelectBuilder) ([]Product, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("products: build query: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "products: query")
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("products: scan: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.MinStock,
		&p.PurchasePrice, &p.SalePrice, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
