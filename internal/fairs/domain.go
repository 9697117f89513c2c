// Package fairs records the outcome of selling at a fair: what went out,
// at which prices, and what was left after the booth was paid for.
package fairs

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/inventory"
	"github.com/stallbook/stallbook/internal/shared"
)

// ErrNotFound is returned for missing or foreign reports.
var ErrNotFound = &shared.CodedError{Kind: shared.ErrNotFound, Code: "FAIR_REPORT_NOT_FOUND", Message: "fair report not found"}

// Report is one fair with its totals.
type Report struct {
	ID               int64           `json:"id"`
	FairName         string          `json:"fair_name"`
	FairDate         time.Time       `json:"fair_date"`
	BoothCost        decimal.Decimal `json:"booth_cost"`
	MiscExpenses     decimal.Decimal `json:"misc_expenses"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalProductCost decimal.Decimal `json:"total_product_cost"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	Note             *string         `json:"note"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []Item          `json:"items,omitempty"`
}

// Item is one product line of a report with the prices in force when the
// report was written.
type Item struct {
	ID             int64           `json:"id"`
	ProductID      *int64          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	ProfitSubtotal decimal.Decimal `json:"profit_subtotal"`
}

// CreateInput is a new fair report.
type CreateInput struct {
	FairName     string          `json:"fair_name" validate:"required,max=255"`
	FairDate     shared.Date     `json:"fair_date" validate:"required"`
	BoothCost    decimal.Decimal `json:"booth_cost" validate:"gte=0"`
	MiscExpenses decimal.Decimal `json:"misc_expenses" validate:"gte=0"`
	Note         *string         `json:"note"`
	Items        []ItemInput     `json:"items" validate:"required,min=1,dive"`
}

// ItemInput names a product and how many units were sold.
type ItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// line prices one item against the product's current prices.
func line(l inventory.Level, qty int) Item {
	q := decimal.NewFromInt(int64(qty))
	id := l.ProductID
	return Item{
		ProductID:      &id,
		ProductName:    l.Name,
		Quantity:       qty,
		PurchasePrice:  l.PurchasePrice,
		SalePrice:      l.SalePrice,
		ProfitSubtotal: l.SalePrice.Sub(l.PurchasePrice).Mul(q),
	}
}

// tally fills the report totals from its items.
func tally(r *Report) {
	r.TotalSales, r.TotalProductCost = decimal.Zero, decimal.Zero
	for _, it := range r.Items {
		q := decimal.NewFromInt(int64(it.Quantity))
		r.TotalSales = r.TotalSales.Add(it.SalePrice.Mul(q))
		r.TotalProductCost = r.TotalProductCost.Add(it.PurchasePrice.Mul(q))
	}
	r.NetProfit = r.TotalSales.Sub(r.TotalProductCost).Sub(r.BoothCost).Sub(r.MiscExpenses)
}
