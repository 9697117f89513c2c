// Package sales records units sold. A sale never drives stock below zero.
package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

// ErrNotFound is returned for missing or foreign sales.
var ErrNotFound = &shared.CodedError{Kind: shared.ErrNotFound, Code: "SALE_NOT_FOUND", Message: "sale not found"}

// Sale is one recorded sale.
type Sale struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"product_id"`
	ProductName *string         `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Note        *string         `json:"note"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateInput is a new sale. Date defaults to now.
type CreateInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Note      *string         `json:"note"`
	Date      shared.Date     `json:"date"`
}

// CreateResult is the recorded sale plus a low stock flag for the product.
type CreateResult struct {
	Sale
	RemainingStock  int    `json:"remaining_stock"`
	LowStockWarning bool   `json:"low_stock_warning"`
	WarningMessage  string `json:"warning_message,omitempty"`
}

// ListFilter narrows a listing.
type ListFilter struct {
	Period    *shared.Period
	ProductID *int64
	Page      shared.PageRequest
}

// History is every sale inside a period with its totals.
type History struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Sales         []Sale          `json:"sales"`
	Count         int             `json:"count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

func newHistory(p shared.Period, items []Sale) History {
	h := History{From: p.From, To: p.To, Sales: items, Count: len(items), TotalAmount: decimal.Zero}
	for _, it := range items {
		h.TotalQuantity += it.Quantity
		h.TotalAmount = h.TotalAmount.Add(it.Total)
	}
	return h
}
