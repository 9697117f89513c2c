// Package reports aggregates sales, purchases and investments into monthly
// and yearly profit views and a merged activity timeline.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flow kinds as they appear in the timeline.
const (
	KindSale       = "sale"
	KindPurchase   = "purchase"
	KindInvestment = "investment"
)

// Totals is money in and out over a period.
type Totals struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	TotalInvestments decimal.Decimal `json:"total_investments"`
	NetProfit        decimal.Decimal `json:"net_profit"`
}

// NewTotals derives the net profit from the three sums.
func NewTotals(sales, purchases, investments decimal.Decimal) Totals {
	return Totals{
		TotalSales:       sales,
		TotalPurchases:   purchases,
		TotalInvestments: investments,
		NetProfit:        sales.Sub(purchases).Sub(investments),
	}
}

// Monthly is the totals of one calendar month.
type Monthly struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Totals
}

// Yearly is a year's totals with every month broken out, January first.
type Yearly struct {
	Year int `json:"year"`
	Totals
	Months []Monthly `json:"months"`
}

// Entry is one row of the activity timeline.
type Entry struct {
	Kind        string          `json:"kind"`
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// Timeline orderings.
const (
	OrderDesc = "desc"
	OrderAsc  = "asc"
)
