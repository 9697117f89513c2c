package backup

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/platform/db"
	"github.com/stallbook/stallbook/internal/shared"
)

// PGStore reads and rewrites a user's graph in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs the Postgres backup store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Owner loads the user's name and email.
func (s *PGStore) Owner(ctx context.Context, userID int64) (Owner, error) {
	var o Owner
	err := s.pool.QueryRow(ctx, `SELECT name, email FROM users WHERE id = $1`, userID).Scan(&o.Name, &o.Email)
	if err != nil {
		return Owner{}, db.MapError(err, "backup: load owner")
	}
	return o, nil
}

// Products returns every product of the user, inactive ones included.
func (s *PGStore) Products(ctx context.Context, userID int64) ([]Product, error) {
	b := db.Builder.Select("id, name, description, stock, min_stock, purchase_price, sale_price, active, created_at, updated_at").
		From("products").Where(sq.Eq{"user_id": userID}).OrderBy("id")
	return collect(ctx, s.pool, b, func(row pgx.Rows) (Product, error) {
		var p Product
		err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.MinStock, &p.PurchasePrice, &p.SalePrice, &p.Active, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
}

// Purchases returns every purchase of the user.
func (s *PGStore) Purchases(ctx context.Context, userID int64) ([]Purchase, error) {
	b := db.Builder.Select("id, product_id, quantity, unit_price, total, supplier, note, occurred_at, created_at").
		From("purchases").Where(sq.Eq{"user_id": userID}).OrderBy("id")
	return collect(ctx, s.pool, b, func(row pgx.Rows) (Purchase, error) {
		var p Purchase
		err := row.Scan(&p.ID, &p.ProductID, &p.Quantity, &p.UnitPrice, &p.Total, &p.Supplier, &p.Note, &p.Date, &p.CreatedAt)
		return p, err
	})
}

// Sales returns every sale of the user.
func (s *PGStore) Sales(ctx context.Context, userID int64) ([]Sale, error) {
	b := db.Builder.Select("id, product_id, quantity, unit_price, total, note, occurred_at, created_at").
		From("sales").Where(sq.Eq{"user_id": userID}).OrderBy("id")
	return collect(ctx, s.pool, b, func(row pgx.Rows) (Sale, error) {
		var v Sale
		err := row.Scan(&v.ID, &v.ProductID, &v.Quantity, &v.UnitPrice, &v.Total, &v.Note, &v.Date, &v.CreatedAt)
		return v, err
	})
}

// Investments returns every investment of the user.
func (s *PGStore) Investments(ctx context.Context, userID int64) ([]Investment, error) {
	b := db.Builder.Select("id, name, description, amount, category, occurred_at, created_at").
		From("investments").Where(sq.Eq{"user_id": userID}).OrderBy("id")
	return collect(ctx, s.pool, b, func(row pgx.Rows) (Investment, error) {
		var v Investment
		err := row.Scan(&v.ID, &v.Name, &v.Description, &v.Amount, &v.Category, &v.Date, &v.CreatedAt)
		return v, err
	})
}

// FairReports returns every fair report of the user.
func (s *PGStore) FairReports(ctx context.Context, userID int64) ([]FairReport, error) {
	b := db.Builder.Select("id, fair_name, fair_date, booth_cost, misc_expenses, total_sales, total_product_cost, net_profit, note, created_at").
		From("fair_reports").Where(sq.Eq{"user_id": userID}).OrderBy("id")
	return collect(ctx, s.pool, b, func(row pgx.Rows) (FairReport, error) {
		var v FairReport
		err := row.Scan(&v.ID, &v.FairName, &v.FairDate, &v.BoothCost, &v.MiscExpenses, &v.TotalSales, &v.TotalProductCost, &v.NetProfit, &v.Note, &v.CreatedAt)
		return v, err
	})
}

// FairReportItems returns the items of the user's fair reports.
func (s *PGStore) FairReportItems(ctx context.Context, userID int64) ([]FairReportItem, error) {
	b := db.Builder.Select("i.id, i.fair_report_id, i.product_id, i.product_name, i.quantity, i.purchase_price, i.sale_price, i.profit_subtotal").
		From("fair_report_items i").
		Join("fair_reports r ON r.id = i.fair_report_id").
		Where(sq.Eq{"r.user_id": userID}).OrderBy("i.id")
	return collect(ctx, s.pool, b, func(row pgx.Rows) (FairReportItem, error) {
		var v FairReportItem
		err := row.Scan(&v.ID, &v.FairReportID, &v.ProductID, &v.ProductName, &v.Quantity, &v.PurchasePrice, &v.SalePrice, &v.ProfitSubtotal)
		return v, err
	})
}

func collect[T any](ctx context.Context, q db.Querier, b sq.SelectBuilder, scan func(pgx.Rows) (T, error)) ([]T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("backup: build query: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "backup: query")
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("backup: scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// WithTx runs fn in a repeatable-read transaction.
func (s *PGStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) LockOwner(ctx context.Context, userID int64) error {
	return db.AdvisoryXactLock(ctx, t.tx, shared.RestoreLockNamespace, userID)
}

func (t pgTx) DeleteOwned(ctx context.Context, userID int64) error {
	statements := []string{
		`DELETE FROM fair_report_items WHERE fair_report_id IN (SELECT id FROM fair_reports WHERE user_id = $1)`,
		`DELETE FROM fair_reports WHERE user_id = $1`,
		`DELETE FROM investments WHERE user_id = $1`,
		`DELETE FROM sales WHERE user_id = $1`,
		`DELETE FROM purchases WHERE user_id = $1`,
		`DELETE FROM products WHERE user_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := t.tx.Exec(ctx, stmt, userID); err != nil {
			return db.MapError(err, "backup: delete owned rows")
		}
	}
	return nil
}

func (t pgTx) InsertProduct(ctx context.Context, userID int64, p Product) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO products (user_id, name, description, stock, min_stock, purchase_price, sale_price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, TRUE), COALESCE($9, NOW()), COALESCE($10, NOW()))
		RETURNING id`,
		userID, p.Name, p.Description, p.Stock, p.MinStock, p.PurchasePrice, p.SalePrice, p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, db.MapError(err, "backup: insert product")
	}
	return id, nil
}

func (t pgTx) InsertPurchase(ctx context.Context, userID int64, p Purchase) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO purchases (user_id, product_id, quantity, unit_price, total, supplier, note, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), COALESCE($9, NOW()))`,
		userID, p.ProductID, p.Quantity, p.UnitPrice, p.Total, p.Supplier, p.Note, p.Date, p.CreatedAt)
	return db.MapError(err, "backup: insert purchase")
}

func (t pgTx) InsertSale(ctx context.Context, userID int64, s Sale) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO sales (user_id, product_id, quantity, unit_price, total, note, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), COALESCE($8, NOW()))`,
		userID, s.ProductID, s.Quantity, s.UnitPrice, s.Total, s.Note, s.Date, s.CreatedAt)
	return db.MapError(err, "backup: insert sale")
}

func (t pgTx) InsertInvestment(ctx context.Context, userID int64, inv Investment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO investments (user_id, name, description, amount, category, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), COALESCE($7, NOW()))`,
		userID, inv.Name, inv.Description, inv.Amount, inv.Category, inv.Date, inv.CreatedAt)
	return db.MapError(err, "backup: insert investment")
}

func (t pgTx) InsertFairReport(ctx context.Context, userID int64, fr FairReport) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO fair_reports (user_id, fair_name, fair_date, booth_cost, misc_expenses, total_sales, total_product_cost, net_profit, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))
		RETURNING id`,
		userID, fr.FairName, fr.FairDate, fr.BoothCost, fr.MiscExpenses, fr.TotalSales, fr.TotalProductCost, fr.NetProfit, fr.Note, fr.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, db.MapError(err, "backup: insert fair report")
	}
	return id, nil
}

func (t pgTx) InsertFairReportItem(ctx context.Context, item FairReportItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO fair_report_items (fair_report_id, product_id, product_name, quantity, purchase_price, sale_price, profit_subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.FairReportID, item.ProductID, item.ProductName, item.Quantity, item.PurchasePrice, item.SalePrice, item.ProfitSubtotal)
	return db.MapError(err, "backup: insert fair report item")
}
