package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/braderie/caisse-backend/api/controllers"
	"github.com/braderie/caisse-backend/api/middleware"
	"github.com/braderie/caisse-backend/internal/catalog"
	"github.com/braderie/caisse-backend/internal/sales"
	"github.com/braderie/caisse-backend/internal/till"
	"github.com/braderie/caisse-backend/pkg/config"
	"github.com/braderie/caisse-backend/pkg/db"
	"github.com/braderie/caisse-backend/pkg/logger"
	pkgredis "github.com/braderie/caisse-backend/pkg/redis"
)

type Dependencies struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	Redis           pkgredis.Store
	MetricsGatherer prometheus.Gatherer
	CatalogService  catalog.Service
	SalesService    sales.Service
	TillService     till.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.Redis))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
			r.Post("/", controllers.CreateProduct(deps.CatalogService, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.CatalogService, logg))
			r.Put("/{productID}", controllers.UpdateProduct(deps.CatalogService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.SalesService, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(deps.SalesService, logg))
			r.With(middleware.RequireAdminCode(cfg.Admin, logg)).
				Post("/undo", controllers.UndoLastSale(deps.SalesService, logg))
		})

		r.Route("/till", func(r chi.Router) {
			r.Post("/open", controllers.OpenTill(deps.TillService, logg))
			r.Get("/active", controllers.ActiveTill(deps.TillService, logg))
			r.With(middleware.RequireAdminCode(cfg.Admin, logg)).
				Post("/close", controllers.CloseTill(deps.TillService, logg))
			r.Post("/withdrawals", controllers.RecordWithdrawal(deps.TillService, logg))
		})
	})

	return r
}
