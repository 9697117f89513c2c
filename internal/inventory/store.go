package inventory

import (
	"context"
	"errors"

	"github.com/stallbook/stallbook/internal/platform/db"
	"github.com/stallbook/stallbook/internal/shared"
)

// Lock reads and row-locks an active product owned by userID.
func Lock(ctx context.Context, q db.Querier, userID, productID int64) (Level, error) {
	return read(ctx, q, `
		SELECT id, name, stock, min_stock, purchase_price, sale_price
		FROM products
		WHERE id = $1 AND user_id = $2 AND active = TRUE
		FOR UPDATE`, userID, productID, "inventory: lock product")
}

// Peek reads a product owned by userID under a share lock, whether or not it
// is still active. Price snapshots use it.
func Peek(ctx context.Context, q db.Querier, userID, productID int64) (Level, error) {
	return read(ctx, q, `
		SELECT id, name, stock, min_stock, purchase_price, sale_price
		FROM products
		WHERE id = $1 AND user_id = $2
		FOR SHARE`, userID, productID, "inventory: peek product")
}

func read(ctx context.Context, q db.Querier, query string, userID, productID int64, op string) (Level, error) {
	var l Level
	err := q.QueryRow(ctx, query, productID, userID).
		Scan(&l.ProductID, &l.Name, &l.Stock, &l.MinStock, &l.PurchasePrice, &l.SalePrice)
	if err != nil {
		err = db.MapError(err, op)
		if errors.Is(err, shared.ErrNotFound) {
			return Level{}, ErrProductNotFound
		}
		return Level{}, err
	}
	return l, nil
}

// Save writes the stock and purchase price of l back to its product.
func Save(ctx context.Context, q db.Querier, userID int64, l Level) error {
	tag, err := q.Exec(ctx, `
		UPDATE products SET stock = $3, purchase_price = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`,
		l.ProductID, userID, l.Stock, l.PurchasePrice)
	if err != nil {
		return db.MapError(err, "inventory: save product")
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
