// Package products manages a user's product catalog.
package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

// ErrNotFound is returned for missing, inactive or foreign products.
var ErrNotFound = &shared.CodedError{Kind: shared.ErrNotFound, Code: "PRODUCT_NOT_FOUND", Message: "product not found"}

// Product is a catalog entry.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateInput holds a new product.
type CreateInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   *string         `json:"description"`
	Stock         int             `json:"stock" validate:"gte=0"`
	MinStock      int             `json:"min_stock" validate:"gte=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gte=0"`
	SalePrice     decimal.Decimal `json:"sale_price" validate:"gte=0"`
}

// UpdateInput holds a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Stock         *int             `json:"stock" validate:"omitempty,gte=0"`
	MinStock      *int             `json:"min_stock" validate:"omitempty,gte=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price" validate:"omitempty,gte=0"`
	SalePrice     *decimal.Decimal `json:"sale_price" validate:"omitempty,gte=0"`
}

// Empty reports whether the update changes nothing.
func (in UpdateInput) Empty() bool {
	return in.Name == nil && in.Description == nil && in.Stock == nil &&
		in.MinStock == nil && in.PurchasePrice == nil && in.SalePrice == nil
}

// Apply returns p with the non-nil fields of in.
func (in UpdateInput) Apply(p Product) Product {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.MinStock != nil {
		p.MinStock = *in.MinStock
	}
	if in.PurchasePrice != nil {
		p.PurchasePrice = *in.PurchasePrice
	}
	if in.SalePrice != nil {
		p.SalePrice = *in.SalePrice
	}
	return p
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Search string
	Page   shared.PageRequest
}
