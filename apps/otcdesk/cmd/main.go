package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"otcdesk/apps/otcdesk/internal/api"
	"otcdesk/apps/otcdesk/internal/chains"
	"otcdesk/apps/otcdesk/internal/config"
	"otcdesk/apps/otcdesk/internal/engine"
	"otcdesk/apps/otcdesk/internal/escrow"
	"otcdesk/apps/otcdesk/internal/event_publisher"
	"otcdesk/apps/otcdesk/internal/promotion"
	"otcdesk/apps/otcdesk/internal/reconciler"
	"otcdesk/apps/otcdesk/internal/repository"
)

func main() {
	// Initialize zap logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger.Info("Starting application with configuration",
		zap.String("db_url", cfg.DbURL),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.Int("api_port", cfg.APIPort),
	)

	// Connect to database
	db, err := sql.Open("postgres", cfg.DbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize database tables
	if err := repository.InitMigration(db); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Repositories
	walletRepository := repository.NewWalletRepository(db, logger)
	tokenRepository := repository.NewTokenRepository(db, logger)
	balanceRepository := repository.NewBalanceRepository(db, logger)
	offerRepository := repository.NewOfferRepository(db, logger)
	orderRepository := repository.NewOrderRepository(db, logger)
	promotionRepository := repository.NewPromotionRepository(db, logger)
	depositRepository := repository.NewDepositRepository(db, logger)
	outboxRepository := repository.NewOutboxRepository(db, logger)

	// Chain registries and escrow capability
	networkRegistry := chains.NewNetworkRegistry()
	contractRegistry := chains.NewContractRegistry()
	escrowClient, err := escrow.NewClient(networkRegistry, contractRegistry, tokenRepository, logger)
	if err != nil {
		logger.Fatal("Failed to create escrow client", zap.Error(err))
	}

	// Core components
	promotionEvaluator := promotion.NewEvaluator(promotionRepository, promotion.NewHTTPChecker(cfg.PromoCheckTimeout), logger)
	orderEngine := engine.NewEngine(offerRepository, orderRepository, balanceRepository, walletRepository, promotionEvaluator, outboxRepository, logger)
	depositReconciler := reconciler.NewReconciler(escrowClient, walletRepository, tokenRepository, depositRepository, outboxRepository, logger)

	// Create event publisher
	eventPublisher, err := event_publisher.NewEventPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger, outboxRepository)
	if err != nil {
		logger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer eventPublisher.Close()

	// Start event publisher in background
	go eventPublisher.StartPublishing()

	// Create and start API server
	apiServer := api.NewServer(cfg.APIPort,
		api.NewOrderHandler(orderEngine, orderRepository, logger),
		api.NewOfferHandler(offerRepository, promotionRepository, walletRepository, logger),
		api.NewBalanceHandler(walletRepository, balanceRepository, tokenRepository, logger),
		api.NewDepositHandler(depositReconciler, escrowClient, logger),
		api.NewRegistryHandler(walletRepository, tokenRepository, logger),
		logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown API server gracefully
	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	logger.Info("Application shutdown complete")
}
