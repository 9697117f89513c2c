// Package investments tracks money spent on the business itself: booth fees,
// packaging, transport and the like.
package investments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

// ErrNotFound is returned for missing or foreign investments.
var ErrNotFound = &shared.CodedError{Kind: shared.ErrNotFound, Code: "INVESTMENT_NOT_FOUND", Message: "investment not found"}

// DefaultCategory applies when no category is given.
const DefaultCategory = "general"

// Categories lists the accepted categories in display order.
var Categories = []string{"booth", "packaging", "stickers", "transport", "marketing", "general", "other"}

// Investment is one recorded expense.
type Investment struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateInput is a new investment.
type CreateInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Category    string          `json:"category" validate:"omitempty,oneof=booth packaging stickers transport marketing general other"`
	Date        shared.Date     `json:"date"`
}

// UpdateInput is a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	Category    *string          `json:"category" validate:"omitempty,oneof=booth packaging stickers transport marketing general other"`
	Date        *shared.Date     `json:"date"`
}

// Apply returns inv with the non-nil fields of in.
func (in UpdateInput) Apply(inv Investment) Investment {
	if in.Name != nil {
		inv.Name = *in.Name
	}
	if in.Description != nil {
		inv.Description = in.Description
	}
	if in.Amount != nil {
		inv.Amount = *in.Amount
	}
	if in.Category != nil {
		inv.Category = *in.Category
	}
	if in.Date != nil && !in.Date.IsZero() {
		inv.Date = in.Date.UTC()
	}
	return inv
}

// ListFilter narrows a listing.
type ListFilter struct {
	Period   *shared.Period
	Category string
	Page     shared.PageRequest
}

// History is every investment of a month with totals per category.
type History struct {
	From        time.Time                  `json:"from"`
	To          time.Time                  `json:"to"`
	Investments []Investment               `json:"investments"`
	Count       int                        `json:"count"`
	Total       decimal.Decimal            `json:"total"`
	ByCategory  map[string]decimal.Decimal `json:"by_category"`
}

func newHistory(p shared.Period, items []Investment) History {
	h := History{From: p.From, To: p.To, Investments: items, Count: len(items), Total: decimal.Zero, ByCategory: map[string]decimal.Decimal{}}
	for _, it := range items {
		h.Total = h.Total.Add(it.Amount)
		h.ByCategory[it.Category] = h.ByCategory[it.Category].Add(it.Amount)
	}
	return h
}
