// Package purchases records stock bought for resale. Every purchase raises
// the product's stock and resets its purchase price.
package purchases

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

// ErrNotFound is returned for missing or foreign purchases.
var ErrNotFound = &shared.CodedError{Kind: shared.ErrNotFound, Code: "PURCHASE_NOT_FOUND", Message: "purchase not found"}

// Purchase is one recorded purchase. ProductName is empty when the product
// was removed.
type Purchase struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"product_id"`
	ProductName *string         `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Supplier    *string         `json:"supplier"`
	Note        *string         `json:"note"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateInput is a new purchase. Date defaults to now.
type CreateInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Supplier  *string         `json:"supplier" validate:"omitempty,max=255"`
	Note      *string         `json:"note"`
	Date      shared.Date     `json:"date"`
}

// ListFilter narrows a listing.
type ListFilter struct {
	Period    *shared.Period
	ProductID *int64
	Page      shared.PageRequest
}

// History is every purchase inside a period with its totals.
type History struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Purchases     []Purchase      `json:"purchases"`
	Count         int             `json:"count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

func newHistory(p shared.Period, items []Purchase) History {
	h := History{From: p.From, To: p.To, Purchases: items, Count: len(items), TotalAmount: decimal.Zero}
	for _, it := range items {
		h.TotalQuantity += it.Quantity
		h.TotalAmount = h.TotalAmount.Add(it.Total)
	}
	return h
}
