package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/printshop-backend/api/controllers"
	"github.com/angelmondragon/printshop-backend/api/routes"
	"github.com/angelmondragon/printshop-backend/internal/checkout"
	"github.com/angelmondragon/printshop-backend/internal/coupons"
	"github.com/angelmondragon/printshop-backend/internal/notifications"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/payments"
	"github.com/angelmondragon/printshop-backend/internal/pricing"
	"github.com/angelmondragon/printshop-backend/internal/products"
	"github.com/angelmondragon/printshop-backend/pkg/cashfree"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/mailer"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/migrate"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	cashfreeClient, err := cashfree.New(cfg.Cashfree, nil)
	if err != nil {
		return err
	}
	gateway, err := payments.NewCashfreeGateway(cashfreeClient, cfg.Pricing.Currency)
	if err != nil {
		return err
	}
	evaluator, err := pricing.NewEvaluator(cfg.Pricing)
	if err != nil {
		return err
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())
	couponsRepo := coupons.NewRepository(dbClient.DB())

	notifier, err := notifications.NewNotifier(mailer.NewSMTP(cfg.SMTP), cfg.Site.StoreName, logg)
	if err != nil {
		return err
	}
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, notifier, paymentMetrics, logg)
	if err != nil {
		return err
	}
	paymentsSvc, err := payments.NewService(ordersRepo, dbClient, outboxSvc, gateway, paymentMetrics, logg)
	if err != nil {
		return err
	}
	couponsSvc, err := coupons.NewService(couponsRepo, evaluator, logg)
	if err != nil {
		return err
	}
	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:        dbClient,
		Products:  products.NewRepository(dbClient.DB()),
		Coupons:   couponsRepo,
		Orders:    ordersRepo,
		Evaluator: evaluator,
		Outbox:    outboxSvc,
		Gateway:   gateway,
		Site:      cfg.Site,
		Metrics:   paymentMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}
	ingestor, err := payments.NewWebhookIngestor(cfg.Cashfree.SecretKey, paymentsSvc, redisClient, cfg.Redis.WebhookIdempotencyTTL, paymentMetrics, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg,
		map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
		redisClient,
		registry,
		routes.Services{
			Checkout: checkoutSvc,
			Orders:   ordersSvc,
			Payments: paymentsSvc,
			Coupons:  couponsSvc,
			Webhooks: ingestor,
		},
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
