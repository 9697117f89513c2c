package backup

import "context"

// Reader is the read-only store used by the Builder. Every method returns the
// user's rows ordered by id ascending.
type Reader interface {
	Owner(ctx context.Context, userID int64) (Owner, error)
	Products(ctx context.Context, userID int64) ([]Product, error)
	Purchases(ctx context.Context, userID int64) ([]Purchase, error)
	Sales(ctx context.Context, userID int64) ([]Sale, error)
	Investments(ctx context.Context, userID int64) ([]Investment, error)
	FairReports(ctx context.Context, userID int64) ([]FairReport, error)
	// FairReportItems returns items whose parent report belongs to userID.
	FairReportItems(ctx context.Context, userID int64) ([]FairReportItem, error)
}

// Writer runs a restore inside one transaction.
type Writer interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

// Tx is the set of statements a restore issues. All of them commit or roll
// back together.
type Tx interface {
	// LockOwner serializes restores of the same user.
	LockOwner(ctx context.Context, userID int64) error
	// DeleteOwned removes the user's items, reports, investments, sales,
	// purchases and products, children first. The user row and audit
	// records are untouched.
	DeleteOwned(ctx context.Context, userID int64) error
	InsertProduct(ctx context.Context, userID int64, p Product) (int64, error)
	InsertPurchase(ctx context.Context, userID int64, p Purchase) error
	InsertSale(ctx context.Context, userID int64, s Sale) error
	InsertInvestment(ctx context.Context, userID int64, inv Investment) error
	InsertFairReport(ctx context.Context, userID int64, fr FairReport) (int64, error)
	InsertFairReportItem(ctx context.Context, item FairReportItem) error
}

// Invalidator drops cached views after a restore.
type Invalidator interface {
	Bump(ctx context.Context, scope string) error
}

// Observer receives restore outcomes for metrics.
type Observer interface {
	ObserveRestore(outcome string, seconds float64)
}
