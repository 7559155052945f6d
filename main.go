package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"immosearch/api"
	"immosearch/config"
	"immosearch/services"
	"immosearch/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	logger.Info("=== ImmoSearch PF API starting ===")
	logger.Info("Config: port %d | concurrency %d | rate %dms | fetch timeout %dms | retries %d",
		cfg.Port, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.FetchTimeoutMs, cfg.MaxRetries)

	searchSvc, session, err := services.Build(cfg, logger)
	if err != nil {
		logger.Error("Failed to load sources: %v", err)
		os.Exit(1)
	}
	if session != nil {
		defer func() {
			if err := session.Close(); err != nil {
				logger.Warn("Render session close: %v", err)
			}
		}()
	}

	gin.SetMode(cfg.GinMode)
	router := api.NewRouter(api.NewHandler(searchSvc, logger), cfg.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s (GET /api/search, /api/health, /api/sources)", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed: %v", err)
		}
		return
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
