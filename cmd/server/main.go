package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/commerce"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Observ.JaegerEndpoint, cfg.Observ.SampleRatio)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	commerceClient := commerce.NewClient(commerce.Options{
		Endpoint:         cfg.Commerce.GraphQLURL,
		StoreCode:        cfg.Commerce.StoreCode,
		Timeout:          cfg.Commerce.Timeout,
		BreakerThreshold: cfg.Commerce.BreakerThreshold,
		BreakerTimeout:   cfg.Commerce.BreakerTimeout,
	})

	sessions := service.NewSessionManager(redisClient, cfg.Cart.SessionTTL, cfg.Catalog.PageSize, cfg.Catalog.LoadMoreStep)
	storefrontService := service.NewStorefrontService(sessions, commerceClient, commerceClient, cfg.Cart.NoticeDuration)
	checkoutService := service.NewCheckoutService(sessions, commerceClient, redisClient, eventPublisher, cfg.Checkout.PlacementLockTTL)
	orderHistory := service.NewOrderHistory(db)
	accountService := service.NewAccountService(commerceClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	historyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	historyWorker := worker.NewOrderHistoryWorker(historyConsumer, orderHistory)
	go func() {
		if err := historyWorker.Start(workerCtx); err != nil {
			logger.Error("Order history worker error", zap.Error(err))
		}
	}()

	sweeper := worker.NewSessionSweeper(sessions, cfg.Cart.SweepInterval, cfg.Cart.SessionIdle)
	go sweeper.Start(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(storefrontService, checkoutService, orderHistory, accountService,
		api.ReadinessCheck{Name: "database", Ping: db.Ping},
		api.ReadinessCheck{Name: "redis", Ping: redisClient.Ping},
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := historyWorker.Stop(); err != nil {
		logger.Error("Failed to stop order history worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
