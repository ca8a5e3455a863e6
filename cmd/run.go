package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"payengine/config"
	"payengine/database"
	"payengine/events"
	"payengine/provider"
	"payengine/repository"
	"payengine/service"
	"payengine/web"
)

// Run initializes and starts the payout engine
func Run(ctx context.Context) error {
	log.Println("Starting payout engine...")

	// Load configuration
	cfg := config.Get()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	events.RegisterLogSubscribers(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize payment provider and retry policy
	paymentProvider := provider.NewMockProvider(cfg.MockFailureRate, cfg.MockLatency)
	retryPolicy := provider.NewRetryPolicy(cfg.ProviderMaxRetries)
	log.Printf("Payment provider initialized: %s", paymentProvider.Name())

	// Initialize services
	orchestrator := service.NewPayoutService(uowFactory, paymentProvider, retryPolicy, cfg.PayoutWorkers)
	querySvc := service.NewQueryService(
		repository.NewPayoutRepository(db),
		repository.NewPayoutRunRepository(db),
		repository.NewAuditLogRepository(db),
	)

	// Initialize HTTP server
	server := web.NewServer(orchestrator, querySvc, db)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s (%s mode)", cfg.ListenAddr, cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server failure
	select {
	case <-ctx.Done():
		log.Println("Shutting down payout engine...")
	case err := <-errCh:
		db.Close()
		return fmt.Errorf("HTTP server error: %w", err)
	}

	// Stop accepting requests; in-flight runs finish their current payouts
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during HTTP shutdown: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
