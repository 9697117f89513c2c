//go:build integration

package backup_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/backup"
	"github.com/stallbook/stallbook/internal/platform/db/dbtest"
)

func TestPGStoreRestoreRoundTrip(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, pool, "ana")
	other := dbtest.SeedUser(t, pool, "bruno")

	var soap, candle, foreign int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (user_id, name, stock, purchase_price, sale_price) VALUES ($1, 'Soap', 5, 1.50, 3.00) RETURNING id`, userID).Scan(&soap))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (user_id, name, stock, purchase_price, sale_price) VALUES ($1, 'Candle', 2, 2.00, 5.50) RETURNING id`, userID).Scan(&candle))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (user_id, name) VALUES ($1, 'Foreign') RETURNING id`, other).Scan(&foreign))
	_, err := pool.Exec(ctx, `INSERT INTO purchases (user_id, product_id, quantity, unit_price, total) VALUES ($1, $2, 4, 2.00, 8.00)`, userID, candle)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO sales (user_id, product_id, quantity, unit_price, total) VALUES ($1, $2, 1, 3.00, 3.00)`, userID, soap)
	require.NoError(t, err)
	var reportID int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO fair_reports (user_id, fair_name, fair_date) VALUES ($1, 'Spring', '2024-05-04') RETURNING id`, userID).Scan(&reportID))
	_, err = pool.Exec(ctx, `INSERT INTO fair_report_items (fair_report_id, product_id, product_name, quantity, purchase_price, sale_price, profit_subtotal) VALUES ($1, $2, 'Candle', 1, 2.00, 5.50, 3.50)`, reportID, candle)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := backup.NewStore(pool)
	builder := backup.NewBuilder(store, nil, logger)
	restorer := backup.NewRestorer(backup.RestorerConfig{Store: store, Logger: logger})

	doc, err := builder.Export(ctx, userID, "")
	require.NoError(t, err)
	require.Equal(t, backup.Counts{Products: 2, Purchases: 1, Sales: 1, FairReports: 1, FairReportItems: 1}, doc.Data.Counts())

	result, err := restorer.Restore(ctx, userID, doc, "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, doc.Data.Counts(), result.Counts)

	again, err := builder.Export(ctx, userID, "")
	require.NoError(t, err)
	newCandle := again.Data.Products[1].ID
	require.Equal(t, "Candle", again.Data.Products[1].Name)
	require.NotEqual(t, candle, newCandle)
	require.Equal(t, newCandle, *again.Data.Purchases[0].ProductID)
	require.Equal(t, newCandle, *again.Data.FairReportItems[0].ProductID)
	require.True(t, decimal.RequireFromString("8").Equal(again.Data.Purchases[0].Total))

	// Another user's rows are untouched.
	var otherCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE user_id = $1`, other).Scan(&otherCount))
	require.Equal(t, 1, otherCount)

	// A dangling reference rolls the whole restore back.
	missing := foreign + 1_000_000
	bad := &backup.Snapshot{Version: backup.FormatVersion, CreatedAt: time.Now(), Data: &backup.Data{
		Sales: []backup.Sale{{ID: 1, ProductID: &missing, Quantity: 1}},
	}}
	_, err = restorer.Restore(ctx, userID, bad, "")
	require.ErrorIs(t, err, backup.ErrRestoreFailed)

	after, err := builder.Export(ctx, userID, "")
	require.NoError(t, err)
	require.Equal(t, again.Data.Counts(), after.Data.Counts())
}

func TestPGStoreReplaysInvestmentsRaw(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, pool, "carla")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := backup.NewStore(pool)
	builder := backup.NewBuilder(store, nil, logger)
	restorer := backup.NewRestorer(backup.RestorerConfig{Store: store, Logger: logger})

	doc := &backup.Snapshot{Version: backup.FormatVersion, CreatedAt: time.Now(), Data: &backup.Data{
		Investments: []backup.Investment{{ID: 7, Name: "Refund", Amount: decimal.RequireFromString("-5.00"), Category: ""}},
	}}
	_, err := restorer.Restore(ctx, userID, doc, "")
	require.NoError(t, err)

	got, err := builder.Export(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, got.Data.Investments, 1)
	require.Equal(t, "", got.Data.Investments[0].Category)
	require.True(t, decimal.RequireFromString("-5").Equal(got.Data.Investments[0].Amount))

	orphan := &backup.Snapshot{Version: backup.FormatVersion, CreatedAt: time.Now(), Data: &backup.Data{
		FairReportItems: []backup.FairReportItem{{ID: 1, FairReportID: 404, ProductName: "Soap", Quantity: 1}},
	}}
	_, err = restorer.Restore(ctx, userID, orphan, "")
	require.ErrorIs(t, err, backup.ErrRestoreFailed)

	after, err := builder.Export(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, after.Data.Investments, 1)
}
