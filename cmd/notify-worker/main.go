package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kreasivisual/kreasivisual-backend/internal/notifications"
	"github.com/kreasivisual/kreasivisual-backend/pkg/config"
	"github.com/kreasivisual/kreasivisual-backend/pkg/db"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/metrics"
	"github.com/kreasivisual/kreasivisual-backend/pkg/pubsub"
	"github.com/kreasivisual/kreasivisual-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notify-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "notify-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	service, err := notifications.NewService(notifications.ServiceParams{
		Repo: notifications.NewRepository(dbClient.DB()),
	})
	requireResource(ctx, logg, "notifications service", err)

	registry := prometheus.NewRegistry()
	consumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Service:      service,
		Subscription: pubsubClient.OrdersSubscription(),
		Dedupe:       redisClient,
		Metrics:      metrics.NewConsumerMetrics(registry),
		Logger:       logg,
	})
	requireResource(ctx, logg, "order notification consumer", err)

	if port := os.Getenv("METRICS_PORT"); port != "" {
		go serveMetrics(logg, ":"+port, registry)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"subscription": cfg.PubSub.OrdersSubscription,
	})
	logg.Info(runCtx, "notify worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notify worker not working", err)
		os.Exit(1)
	}
}

func serveMetrics(logg *logger.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logg.Error(context.Background(), "metrics endpoint stopped", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
