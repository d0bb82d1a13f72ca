package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kreasivisual/kreasivisual-backend/api/controllers"
	"github.com/kreasivisual/kreasivisual-backend/api/routes"
	"github.com/kreasivisual/kreasivisual-backend/internal/auth"
	"github.com/kreasivisual/kreasivisual-backend/internal/cart"
	"github.com/kreasivisual/kreasivisual-backend/internal/chat"
	"github.com/kreasivisual/kreasivisual-backend/internal/notifications"
	"github.com/kreasivisual/kreasivisual-backend/internal/orders"
	"github.com/kreasivisual/kreasivisual-backend/internal/payments"
	"github.com/kreasivisual/kreasivisual-backend/internal/users"
	"github.com/kreasivisual/kreasivisual-backend/pkg/auth/session"
	"github.com/kreasivisual/kreasivisual-backend/pkg/config"
	"github.com/kreasivisual/kreasivisual-backend/pkg/db"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/metrics"
	"github.com/kreasivisual/kreasivisual-backend/pkg/midtrans"
	"github.com/kreasivisual/kreasivisual-backend/pkg/migrate"
	"github.com/kreasivisual/kreasivisual-backend/pkg/pubsub"
	"github.com/kreasivisual/kreasivisual-backend/pkg/redis"
	"github.com/kreasivisual/kreasivisual-backend/pkg/storage/gcs"
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	midtransClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap midtrans", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		TxRunner: dbClient,
		Cart:     cartService,
		Events:   orders.NewPubSubEmitter(pubsubClient.OrdersPublisher(), logg),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Orders:  ordersRepo,
		Machine: ordersService,
		Gateway: midtransClient,
		Buyers:  usersRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	chatService, err := chat.NewService(chat.ServiceParams{
		Repo:          chat.NewRepository(dbClient.DB()),
		Orders:        ordersRepo,
		Uploader:      gcsClient,
		Bucket:        cfg.GCS.BucketName,
		Publisher:     redisClient,
		Feed:          chat.NewRedisFeed(redisClient),
		MaxAttachment: cfg.Chat.MaxAttachmentBytes(),
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo: notifications.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Session:  sessionManager,
		Metrics:  httpMetrics,
		Gatherer: registry,
		ReadinessDeps: map[string]controllers.Pinger{
			"db":     dbClient,
			"redis":  redisClient,
			"pubsub": pubsubClient,
			"gcs":    gcsClient,
		},
		AuthService:     authService,
		RegisterService: registerService,
		CartService:     cartService,
		OrdersService:   ordersService,
		PaymentsService: paymentsService,
		ChatService:     chatService,
		Notifications:   notificationsService,
	})

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
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}
