// Package main is the entry point for the trackit API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trackit/internal/domain/auth"
	"trackit/internal/domain/directory"
	"trackit/internal/domain/ledger"
	v1 "trackit/internal/infrastructure/http/v1"
	"trackit/internal/infrastructure/storage/postgres"
	"trackit/internal/infrastructure/storage/postgres/auth_repo"
	"trackit/internal/infrastructure/storage/postgres/directory_repo"
	"trackit/internal/infrastructure/storage/postgres/ledger_repo"
	"trackit/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting trackit server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Directory ---
	productRepo := directory_repo.NewProductRepo(txManager)
	warehouseRepo := directory_repo.NewWarehouseRepo(txManager)
	counterpartyRepo := directory_repo.NewCounterpartyRepo(txManager)

	productService := directory.NewCatalogService[*directory.Product](productRepo, txManager, "product")
	warehouseService := directory.NewCatalogService[*directory.Warehouse](warehouseRepo, txManager, "warehouse")
	counterpartyService := directory.NewCatalogService[*directory.Counterparty](counterpartyRepo, txManager, "counterparty")
	resolver := directory.NewResolver(productRepo, warehouseRepo, counterpartyRepo)

	// --- Audit trail ---
	trail, err := postgres.NewAuditTrail(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit trail", "error", err)
	}
	defer trail.Close()

	// --- Stock ledger ---
	levelRepo := ledger_repo.NewStockLevelRepo(txManager)
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	ledgerService := ledger.NewService(levelRepo, movementRepo, resolver, trail, txManager)

	// --- Auth ---
	jwtTTL := getEnvDuration("JWT_TTL", 12*time.Hour)
	jwtService := auth.NewJWTService(mustEnv("JWT_SECRET"), jwtTTL)
	authService := auth.NewService(auth_repo.NewUserRepo(txManager), jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		AuthService:    authService,
		LedgerService:  ledgerService,
		Products:       productService,
		Warehouses:     warehouseService,
		Counterparties: counterpartyService,
		Trail:          trail,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
