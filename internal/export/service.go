// Package export renders the user's records as Excel workbooks.
package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/audit"
	"github.com/stallbook/stallbook/internal/investments"
	"github.com/stallbook/stallbook/internal/products"
	"github.com/stallbook/stallbook/internal/purchases"
	"github.com/stallbook/stallbook/internal/reports"
	"github.com/stallbook/stallbook/internal/sales"
	"github.com/stallbook/stallbook/internal/shared"
)

// ProductSource lists products.
type ProductSource interface {
	All(ctx context.Context, userID int64) ([]products.Product, error)
}

// PurchaseSource lists purchases.
type PurchaseSource interface {
	All(ctx context.Context, userID int64) ([]purchases.Purchase, error)
	History(ctx context.Context, userID int64, p shared.Period) (purchases.History, error)
}

// SaleSource lists sales.
type SaleSource interface {
	All(ctx context.Context, userID int64) ([]sales.Sale, error)
	History(ctx context.Context, userID int64, p shared.Period) (sales.History, error)
}

// InvestmentSource lists investments.
type InvestmentSource interface {
	All(ctx context.Context, userID int64) ([]investments.Investment, error)
	Month(ctx context.Context, userID int64, year, month int) (investments.History, error)
}

// ReportSource computes monthly totals.
type ReportSource interface {
	Monthly(ctx context.Context, userID int64, year, month int) (reports.Monthly, error)
}

// AuditSource lists audit records.
type AuditSource interface {
	List(ctx context.Context, userID int64, f audit.Filters) (audit.Page, error)
}

// Sources groups everything the exporter reads from.
type Sources struct {
	Products    ProductSource
	Purchases   PurchaseSource
	Sales       SaleSource
	Investments InvestmentSource
	Reports     ReportSource
	Audit       AuditSource
}

// Month selects one calendar month. The zero value means everything.
type Month struct {
	Year  int
	Month int
}

// IsZero reports whether no month was selected.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) period() (shared.Period, error) {
	return shared.MonthPeriod(m.Year, m.Month, time.UTC)
}

// Service builds workbooks and records an EXPORT audit event for each.
type Service struct {
	src   Sources
	audit shared.AuditRecorder
	now   func() time.Time
}

// NewService constructs the export service.
func NewService(src Sources, recorder shared.AuditRecorder) *Service {
	if recorder == nil {
		recorder = shared.NopAuditRecorder{}
	}
	return &Service{src: src, audit: recorder, now: time.Now}
}

func (s *Service) filename(kind string) string {
	return fmt.Sprintf("%s_%d.xlsx", kind, s.now().UnixMilli())
}

func (s *Service) exported(ctx context.Context, userID int64, kind string, count int) {
	s.audit.Record(ctx, shared.AuditEntry{
		UserID:      shared.Int64Ptr(userID),
		Action:      shared.ActionExport,
		Entity:      shared.EntityExport,
		Description: fmt.Sprintf("%d %s exported to Excel", count, kind),
	})
}

// Products exports every active product.
func (s *Service) Products(ctx context.Context, userID int64, loc Locale) (*Workbook, error) {
	items, err := s.src.Products.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	sh := newSheet(loc.T("sheet_products"))
	sh.row(loc.all("id", "name", "description", "stock", "min_stock", "purchase_price", "sale_price", "status")...)
	for _, p := range items {
		status := loc.T("active")
		if !p.Active {
			status = loc.T("inactive")
		}
		sh.row(p.ID, p.Name, text(p.Description), p.Stock, p.MinStock, money(p.PurchasePrice), money(p.SalePrice), status)
	}
	wb, err := sh.finish(s.filename("products"))
	if err != nil {
		return nil, err
	}
	s.exported(ctx, userID, "products", len(items))
	return wb, nil
}

// Purchases exports purchases of one month, or all of them, with a total row.
func (s *Service) Purchases(ctx context.Context, userID int64, m Month, loc Locale) (*Workbook, error) {
	var items []purchases.Purchase
	if m.IsZero() {
		all, err := s.src.Purchases.All(ctx, userID)
		if err != nil {
			return nil, err
		}
		items = all
	} else {
		p, err := m.period()
		if err != nil {
			return nil, err
		}
		h, err := s.src.Purchases.History(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		items = h.Purchases
	}
	sh := newSheet(loc.T("sheet_purchases"))
	sh.row(loc.all("id", "product", "quantity", "unit_price", "total", "supplier", "note", "date")...)
	total := decimal.Zero
	for _, p := range items {
		total = total.Add(p.Total)
		sh.row(p.ID, orNA(p.ProductName), p.Quantity, money(p.UnitPrice), money(p.Total), text(p.Supplier), text(p.Note), day(p.Date))
	}
	sh.row("", "", loc.T("total"), "", money(total))
	wb, err := sh.finish(s.filename("purchases"))
	if err != nil {
		return nil, err
	}
	s.exported(ctx, userID, "purchases", len(items))
	return wb, nil
}

// Sales exports sales of one month, or all of them, with a total row.
func (s *Service) Sales(ctx context.Context, userID int64, m Month, loc Locale) (*Workbook, error) {
	var items []sales.Sale
	if m.IsZero() {
		all, err := s.src.Sales.All(ctx, userID)
		if err != nil {
			return nil, err
		}
		items = all
	} else {
		p, err := m.period()
		if err != nil {
			return nil, err
		}
		h, err := s.src.Sales.History(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		items = h.Sales
	}
	sh := newSheet(loc.T("sheet_sales"))
	sh.row(loc.all("id", "product", "quantity", "unit_price", "total", "note", "date")...)
	total := decimal.Zero
	for _, v := range items {
		total = total.Add(v.Total)
		sh.row(v.ID, orNA(v.ProductName), v.Quantity, money(v.UnitPrice), money(v.Total), text(v.Note), day(v.Date))
	}
	sh.row("", "", loc.T("total"), "", money(total))
	wb, err := sh.finish(s.filename("sales"))
	if err != nil {
		return nil, err
	}
	s.exported(ctx, userID, "sales", len(items))
	return wb, nil
}

// Investments exports investments of one month, or all of them.
func (s *Service) Investments(ctx context.Context, userID int64, m Month, loc Locale) (*Workbook, error) {
	var items []investments.Investment
	if m.IsZero() {
		all, err := s.src.Investments.All(ctx, userID)
		if err != nil {
			return nil, err
		}
		items = all
	} else {
		h, err := s.src.Investments.Month(ctx, userID, m.Year, m.Month)
		if err != nil {
			return nil, err
		}
		items = h.Investments
	}
	sh := newSheet(loc.T("sheet_investments"))
	sh.row(loc.all("id", "name", "description", "amount", "category", "date")...)
	total := decimal.Zero
	for _, inv := range items {
		total = total.Add(inv.Amount)
		sh.row(inv.ID, inv.Name, text(inv.Description), money(inv.Amount), inv.Category, day(inv.Date))
	}
	sh.row("", "", loc.T("total"), money(total))
	wb, err := sh.finish(s.filename("investments"))
	if err != nil {
		return nil, err
	}
	s.exported(ctx, userID, "investments", len(items))
	return wb, nil
}

// MonthlyReport exports the totals of one month as concept/value rows.
func (s *Service) MonthlyReport(ctx context.Context, userID int64, m Month, loc Locale) (*Workbook, error) {
	report, err := s.src.Reports.Monthly(ctx, userID, m.Year, m.Month)
	if err != nil {
		return nil, err
	}
	sh := newSheet(loc.T("sheet_monthly"))
	sh.row(loc.T("period"), fmt.Sprintf("%04d-%02d", report.Year, report.Month))
	sh.row(loc.T("concept"), loc.T("value"))
	sh.row(loc.T("total_sales"), money(report.TotalSales))
	sh.row(loc.T("total_purchases"), money(report.TotalPurchases))
	sh.row(loc.T("total_investments"), money(report.TotalInvestments))
	sh.row(loc.T("net_profit"), money(report.NetProfit))
	wb, err := sh.finish(s.filename("monthly_report_" + strconv.Itoa(report.Year) + "_" + strconv.Itoa(report.Month)))
	if err != nil {
		return nil, err
	}
	s.exported(ctx, userID, "monthly report", 1)
	return wb, nil
}

// Audit exports the user's audit trail, newest first.
func (s *Service) Audit(ctx context.Context, userID int64, f audit.Filters, loc Locale) (*Workbook, error) {
	f.Page = shared.PageRequest{}
	page, err := s.src.Audit.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	sh := newSheet(loc.T("sheet_audit"))
	sh.row(loc.all("id", "date", "action", "entity", "entity_id", "description", "origin")...)
	for _, r := range page.Records {
		var entityID any = ""
		if r.EntityID != nil {
			entityID = *r.EntityID
		}
		sh.row(r.ID, r.CreatedAt.UTC().Format(time.DateTime), r.Action, r.Entity, entityID, r.Description, text(r.Origin))
	}
	wb, err := sh.finish(s.filename("audit"))
	if err != nil {
		return nil, err
	}
	s.exported(ctx, userID, "audit records", len(page.Records))
	return wb, nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
