package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/braderie/caisse-backend/api/routes"
	"github.com/braderie/caisse-backend/internal/catalog"
	"github.com/braderie/caisse-backend/internal/sales"
	"github.com/braderie/caisse-backend/internal/till"
	"github.com/braderie/caisse-backend/pkg/config"
	"github.com/braderie/caisse-backend/pkg/db"
	"github.com/braderie/caisse-backend/pkg/logger"
	"github.com/braderie/caisse-backend/pkg/metrics"
	"github.com/braderie/caisse-backend/pkg/migrate"
	"github.com/braderie/caisse-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	tillRepo := till.NewRepository(dbClient.DB())
	tillService, err := till.NewService(dbClient, tillRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create till service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(
		dbClient,
		sales.NewRepository(dbClient.DB()),
		catalogRepo,
		till.NewSessionSource(tillRepo),
		sales.Options{
			PaymentTolerance: cfg.Checkout.PaymentToleranceAmount(),
			DonationCeiling:  cfg.Checkout.DonationCeilingAmount(),
		},
		checkoutMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			Redis:           redisClient,
			MetricsGatherer: registry,
			CatalogService:  catalogService,
			SalesService:    salesService,
			TillService:     tillService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
