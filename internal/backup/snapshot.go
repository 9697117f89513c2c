// Package backup exports a user's complete entity graph as a versioned JSON
// snapshot and restores such a snapshot transactionally, remapping the
// surrogate ids reassigned on reinsertion.
package backup

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

// FormatVersion is the snapshot version written by Export.
const FormatVersion = "1.0"

var supportedVersions = map[string]bool{
	FormatVersion: true,
}

// Snapshot is the wire document exchanged by export and restore.
type Snapshot struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Owner     Owner     `json:"owner"`
	Data      *Data     `json:"data"`
}

// Owner identifies whose data a snapshot holds. It is informational only.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Data holds the six owned collections.
type Data struct {
	Products        []Product        `json:"products"`
	Purchases       []Purchase       `json:"purchases"`
	Sales           []Sale           `json:"sales"`
	Investments     []Investment     `json:"investments"`
	FairReports     []FairReport     `json:"fair_reports"`
	FairReportItems []FairReportItem `json:"fair_report_items"`
}

// Product as carried in a snapshot. Name is the key used to rebuild
// references after restore.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Active        *bool           `json:"active"`
	CreatedAt     *time.Time      `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at"`
}

// Purchase as carried in a snapshot.
type Purchase struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Supplier  *string         `json:"supplier"`
	Note      *string         `json:"note"`
	Date      *time.Time      `json:"date"`
	CreatedAt *time.Time      `json:"created_at"`
}

// Sale as carried in a snapshot.
type Sale struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Note      *string         `json:"note"`
	Date      *time.Time      `json:"date"`
	CreatedAt *time.Time      `json:"created_at"`
}

// Investment as carried in a snapshot.
type Investment struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        *time.Time      `json:"date"`
	CreatedAt   *time.Time      `json:"created_at"`
}

// FairReport as carried in a snapshot.
type FairReport struct {
	ID               int64           `json:"id"`
	FairName         string          `json:"fair_name"`
	FairDate         *time.Time      `json:"fair_date"`
	BoothCost        decimal.Decimal `json:"booth_cost"`
	MiscExpenses     decimal.Decimal `json:"misc_expenses"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalProductCost decimal.Decimal `json:"total_product_cost"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	Note             *string         `json:"note"`
	CreatedAt        *time.Time      `json:"created_at"`
}

// FairReportItem as carried in a snapshot.
type FairReportItem struct {
	ID             int64           `json:"id"`
	FairReportID   int64           `json:"fair_report_id"`
	ProductID      *int64          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	ProfitSubtotal decimal.Decimal `json:"profit_subtotal"`
}

// Counts tallies rows per collection.
type Counts struct {
	Products        int `json:"products"`
	Purchases       int `json:"purchases"`
	Sales           int `json:"sales"`
	Investments     int `json:"investments"`
	FairReports     int `json:"fair_reports"`
	FairReportItems int `json:"fair_report_items"`
}

// Counts tallies the collections in d.
func (d *Data) Counts() Counts {
	if d == nil {
		return Counts{}
	}
	return Counts{
		Products:        len(d.Products),
		Purchases:       len(d.Purchases),
		Sales:           len(d.Sales),
		Investments:     len(d.Investments),
		FairReports:     len(d.FairReports),
		FairReportItems: len(d.FairReportItems),
	}
}

// Validate checks the structural preconditions of a restore.
func Validate(doc *Snapshot) error {
	switch {
	case doc == nil:
		return invalidSnapshot("backup document is empty")
	case doc.Version == "":
		return invalidSnapshot("backup version is missing")
	case !supportedVersions[doc.Version]:
		return invalidSnapshot("backup version %q is not supported", doc.Version)
	case doc.Data == nil:
		return invalidSnapshot("backup data section is missing")
	}
	return nil
}

func invalidSnapshot(format string, args ...any) error {
	return shared.NewError(shared.ErrValidation, CodeInvalidFormat, format, args...)
}

func normalize(d *Data) {
	if d.Products == nil {
		d.Products = []Product{}
	}
	if d.Purchases == nil {
		d.Purchases = []Purchase{}
	}
	if d.Sales == nil {
		d.Sales = []Sale{}
	}
	if d.Investments == nil {
		d.Investments = []Investment{}
	}
	if d.FairReports == nil {
		d.FairReports = []FairReport{}
	}
	if d.FairReportItems == nil {
		d.FairReportItems = []FairReportItem{}
	}
}
