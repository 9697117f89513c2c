package fairs

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/platform/db"
	"github.com/stallbook/stallbook/internal/shared"
)

const reportColumns = "id, fair_name, fair_date, booth_cost, misc_expenses, total_sales, total_product_cost, net_profit, note, created_at"

// TxRepository exposes the statements run while writing a report.
type TxRepository interface {
	Product(ctx context.Context, userID, productID int64) (inventory.Level, error)
	InsertReport(ctx context.Context, userID int64, r Report) (Report, error)
	InsertItem(ctx context.Context, reportID int64, it Item) (Item, error)
}

// PGRepository stores fair reports in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres fair report repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn in a transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, txRepo{tx: tx})
	})
}

// List returns reports by fair date, newest first, without items.
func (r *PGRepository) List(ctx context.Context, userID int64, page shared.PageRequest) ([]Report, int, error) {
	b := db.Builder.Select(reportColumns).From("fair_reports").Where(sq.Eq{"user_id": userID})
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, db.MapError(err, "fairs: count")
	}
	sql, args, err := db.Page(b.OrderBy("fair_date DESC", "id DESC"), page.Page, page.Limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("fairs: build query: %w", err)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, db.MapError(err, "fairs: query")
	}
	defer rows.Close()
	reports := []Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("fairs: scan: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, total, rows.Err()
}

// Get returns a report with its items.
func (r *PGRepository) Get(ctx context.Context, userID, id int64) (Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM fair_reports WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, db.MapError(err, "fairs: get")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, product_name, quantity, purchase_price, sale_price, profit_subtotal
		FROM fair_report_items WHERE fair_report_id = $1 ORDER BY id`, id)
	if err != nil {
		return Report{}, db.MapError(err, "fairs: items")
	}
	defer rows.Close()
	rep.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Quantity, &it.PurchasePrice, &it.SalePrice, &it.ProfitSubtotal); err != nil {
			return Report{}, fmt.Errorf("fairs: scan item: %w", err)
		}
		rep.Items = append(rep.Items, it)
	}
	return rep, rows.Err()
}

// Delete removes a report. Items go with it.
func (r *PGRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fair_reports WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "fairs: delete")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type txRepo struct {
	tx pgx.Tx
}

func (t txRepo) Product(ctx context.Context, userID, productID int64) (inventory.Level, error) {
	return inventory.Peek(ctx, t.tx, userID, productID)
}

func (t txRepo) InsertReport(ctx context.Context, userID int64, rep Report) (Report, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO fair_reports (user_id, fair_name, fair_date, booth_cost, misc_expenses, total_sales, total_product_cost, net_profit, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+reportColumns,
		userID, rep.FairName, rep.FairDate, rep.BoothCost, rep.MiscExpenses, rep.TotalSales, rep.TotalProductCost, rep.NetProfit, rep.Note)
	out, err := scanReport(row)
	if err != nil {
		return Report{}, db.MapError(err, "fairs: insert report")
	}
	return out, nil
}

func (t txRepo) InsertItem(ctx context.Context, reportID int64, it Item) (Item, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO fair_report_items (fair_report_id, product_id, product_name, quantity, purchase_price, sale_price, profit_subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		reportID, it.ProductID, it.ProductName, it.Quantity, it.PurchasePrice, it.SalePrice, it.ProfitSubtotal,
	).Scan(&it.ID)
	if err != nil {
		return Item{}, db.MapError(err, "fairs: insert item")
	}
	return it, nil
}

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.FairName, &r.FairDate, &r.BoothCost, &r.MiscExpenses, &r.TotalSales, &r.TotalProductCost, &r.NetProfit, &r.Note, &r.CreatedAt)
	return r, err
}
