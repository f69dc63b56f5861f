package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-core/internal/cache"
	"shop-core/internal/config"
	"shop-core/internal/database"
	"shop-core/internal/gateway"
	"shop-core/internal/handler"
	"shop-core/internal/notify"
	"shop-core/internal/ratelimit"
	"shop-core/internal/repository"
	"shop-core/internal/router"
	"shop-core/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting shop-core API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize Redis client for rate limiting and cache invalidation
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	invalidator := cache.New(redisClient, logger)
	limiter := ratelimit.New(redisClient, cfg.Checkout.RateLimitPerMinute, time.Minute, logger)

	// Initialize the notification event producer
	var notifier notify.Notifier
	if cfg.Kafka.Enabled {
		notifier = notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		notifier = notify.Nop()
		logger.Info().Msg("kafka disabled, notification events are discarded")
	}
	defer notifier.Close()

	// Initialize the payment gateway client
	gw := gateway.New(gateway.Config{
		Name:       cfg.Gateway.Name,
		BaseURL:    cfg.Gateway.BaseURL,
		MerchantID: cfg.Gateway.MerchantID,
		Timeout:    cfg.Gateway.Timeout,
	}, logger)

	// Initialize repositories
	variantRepo := repository.NewVariantRepository(pool, logger)
	inventoryRepo := repository.NewInventoryRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	discountRepo := repository.NewDiscountRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)

	// Initialize services
	inventoryService := service.NewInventoryService(variantRepo, inventoryRepo, invalidator, logger)
	discountService := service.NewDiscountService(discountRepo, logger)
	checkoutService := service.NewCheckoutService(orderRepo, cartRepo, inventoryService, discountService, limiter, invalidator, logger)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, discountService, gw, notifier, invalidator, cfg.Checkout.PaymentExpiry, logger)
	orderService := service.NewOrderService(orderRepo, inventoryService, discountService, invalidator, logger)

	// Initialize HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, paymentService, orderService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	// Initialize router
	mux := router.New(checkoutHandler, paymentHandler, inventoryHandler, orderHandler, cfg.Auth.APIKey, logger)

	// Sweep stale pending payments so stuck attempts never block a retry
	go func() {
		ticker := time.NewTicker(cfg.Checkout.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepCtx, sweepCancel := context.WithTimeout(ctx, 30*time.Second)
				if _, err := paymentService.ExpirePending(sweepCtx); err != nil {
					logger.Error().Err(err).Msg("payment expiry sweep failed")
				}
				sweepCancel()
			}
		}
	}()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server stopped gracefully")
	}

	return nil
}
