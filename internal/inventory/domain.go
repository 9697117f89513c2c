// Package inventory applies stock movements to products. Purchases receive
// stock and sales issue it; both lock the product row for the duration of
// their transaction.
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

// Movement kinds.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

var (
	// ErrProductNotFound indicates the product is missing, inactive or owned
	// by someone else.
	ErrProductNotFound = &shared.CodedError{Kind: shared.ErrNotFound, Code: "PRODUCT_NOT_FOUND", Message: "product not found"}
	// ErrInsufficientStock indicates an outbound movement larger than stock.
	ErrInsufficientStock = &shared.CodedError{Kind: shared.ErrValidation, Code: "INSUFFICIENT_STOCK", Message: "insufficient stock"}
	// ErrInvalidQuantity indicates a movement of zero or negative units.
	ErrInvalidQuantity = &shared.CodedError{Kind: shared.ErrValidation, Code: "INVALID_QUANTITY", Message: "quantity must be greater than zero"}
)

// Level is the stock position of one product.
type Level struct {
	ProductID     int64
	Name          string
	Stock         int
	MinStock      int
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// Low reports whether the remaining stock is at or below the minimum.
func (l Level) Low() bool {
	return l.Stock <= l.MinStock
}

// Receive returns l after an inbound movement. The unit cost becomes the
// product's purchase price.
func Receive(l Level, qty int, unitCost decimal.Decimal) (Level, error) {
	if qty <= 0 {
		return l, ErrInvalidQuantity
	}
	l.Stock += qty
	l.PurchasePrice = unitCost
	return l, nil
}

// Issue returns l after an outbound movement.
func Issue(l Level, qty int) (Level, error) {
	if qty <= 0 {
		return l, ErrInvalidQuantity
	}
	if l.Stock < qty {
		return l, shared.NewError(shared.ErrValidation, ErrInsufficientStock.Code,
			"insufficient stock for %s: %d available, %d requested", l.Name, l.Stock, qty)
	}
	l.Stock -= qty
	return l, nil
}
