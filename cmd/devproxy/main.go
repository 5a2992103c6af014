package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/proxy"
	"storefront-service/internal/util"

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

	p, err := proxy.New(proxy.Options{
		Target:           cfg.Proxy.Target,
		PathPrefix:       cfg.Proxy.PathPrefix,
		InsecureUpstream: cfg.Proxy.InsecureUpstream,
	})
	if err != nil {
		logger.Fatal("Failed to create proxy", zap.Error(err))
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger())
	proxy.SetupRoutes(router, cfg.Proxy.PathPrefix, p)

	srv := &http.Server{
		Addr:              cfg.Proxy.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Proxy server running",
			zap.String("addr", cfg.Proxy.ListenAddr),
			zap.String("target", cfg.Proxy.Target))
		err := srv.ListenAndServeTLS(cfg.Proxy.CertFile, cfg.Proxy.KeyFile)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start proxy", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Proxy forced to shutdown", zap.Error(err))
	}
}
