package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/stallbook/stallbook/internal/audit/http"
	"github.com/stallbook/stallbook/internal/auth"
	"github.com/stallbook/stallbook/internal/backup"
	"github.com/stallbook/stallbook/internal/export"
	"github.com/stallbook/stallbook/internal/fairs"
	"github.com/stallbook/stallbook/internal/investments"
	"github.com/stallbook/stallbook/internal/observability"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/products"
	"github.com/stallbook/stallbook/internal/purchases"
	"github.com/stallbook/stallbook/internal/reports"
	"github.com/stallbook/stallbook/internal/sales"
	"github.com/stallbook/stallbook/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Verifier auth.TokenVerifier
	Metrics  *observability.Metrics

	AuthHandler       *auth.Handler
	ProductHandler    *products.Handler
	PurchaseHandler   *purchases.Handler
	SaleHandler       *sales.Handler
	InvestmentHandler *investments.Handler
	FairHandler       *fairs.Handler
	ReportHandler     *reports.Handler
	AuditHandler      *audithttp.Handler
	BackupHandler     *backup.Handler
	ExportHandler     *export.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Stallbook defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(params.Verifier))

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.ProductHandler != nil {
			r.Route("/products", params.ProductHandler.MountRoutes)
		}
		if params.PurchaseHandler != nil {
			r.Route("/purchases", params.PurchaseHandler.MountRoutes)
		}
		if params.SaleHandler != nil {
			r.Route("/sales", params.SaleHandler.MountRoutes)
		}
		if params.InvestmentHandler != nil {
			r.Route("/investments", params.InvestmentHandler.MountRoutes)
		}
		if params.FairHandler != nil {
			r.Route("/fairs", params.FairHandler.MountRoutes)
		}
		if params.ReportHandler != nil {
			r.Route("/reports", params.ReportHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.BackupHandler != nil {
			r.Route("/backup", params.BackupHandler.MountRoutes)
		}
		if params.ExportHandler != nil {
			r.Route("/export", params.ExportHandler.MountRoutes)
		}
	})

	return r
}
