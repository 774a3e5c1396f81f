package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Barackwilliam/sokoletu/api/routes"
	"github.com/Barackwilliam/sokoletu/internal/cart"
	"github.com/Barackwilliam/sokoletu/internal/checkout"
	"github.com/Barackwilliam/sokoletu/internal/ledger"
	"github.com/Barackwilliam/sokoletu/internal/orders"
	"github.com/Barackwilliam/sokoletu/internal/payments"
	"github.com/Barackwilliam/sokoletu/pkg/config"
	"github.com/Barackwilliam/sokoletu/pkg/db"
	"github.com/Barackwilliam/sokoletu/pkg/logger"
	"github.com/Barackwilliam/sokoletu/pkg/metrics"
	"github.com/Barackwilliam/sokoletu/pkg/migrate"
	"github.com/Barackwilliam/sokoletu/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	pricer := cart.NewPricer(cfg.Checkout)
	cartService, err := cart.NewService(cart.NewRepo(dbClient.DB()), pricer)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepo(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepo(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, ledgerService)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	guard, err := payments.NewGuard(redisClient, 15*time.Minute)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment guard", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Deps{
		DB:             dbClient.DB(),
		Tx:             dbClient,
		Cart:           cartService,
		Pricer:         pricer,
		Orders:         ordersRepo,
		Gateways:       payments.NewRegistryFromConfig(cfg.Gateways),
		Guard:          guard,
		Ledger:         ledgerService,
		Metrics:        checkoutMetrics,
		Logger:         logg,
		GatewayTimeout: cfg.Gateways.CallTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
			Registry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
