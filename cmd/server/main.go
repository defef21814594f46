package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideledger/internal/app"
	"rideledger/internal/config"
	"rideledger/internal/handler"
	"rideledger/internal/ledger"
	internalRedis "rideledger/internal/redis"
	"rideledger/internal/repository/postgres"
	"rideledger/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, engine := wireServer(db, redisClient, nrApp, cfg)

	// Start the ledger event listener.
	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()

	listener, err := ledger.NewListener(ledger.ListenerConfig{
		NSQDAddr:     cfg.NSQ.Addr,
		AccountTopic: cfg.NSQ.AccountTopic,
		LogsTopic:    cfg.NSQ.LogsTopic,
		Channel:      cfg.NSQ.Channel,
	}, engine)
	if err != nil {
		log.Fatalf("failed to create ledger listener: %v", err)
	}
	if err := listener.Start(listenerCtx); err != nil {
		log.Fatalf("failed to start ledger listener: %v", err)
	}
	log.Println("Ledger event listener started")

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown: stop subscriptions first, then drain HTTP.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	listener.Stop()
	stopListener()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server along with
// the reconciliation engine (which the ledger listener also feeds).
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.RideService) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	availabilityStore := internalRedis.NewAvailabilityStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)

	// Initialize the ledger command submitter. Without a bridge endpoint the
	// submission is simulated, as in the reference deployment.
	var submitter service.Submitter = ledger.LogSubmitter{}
	if cfg.Ledger.BridgeCancelURL != "" {
		submitter = ledger.NewHTTPSubmitter(cfg.Ledger.BridgeCancelURL, &http.Client{
			Timeout: cfg.Ledger.SubmitTimeout,
		})
	}

	// Initialize services.
	matchingService := service.NewMatchingService(userRepo, availabilityStore)
	rideService := service.NewRideService(rideRepo, userRepo, matchingService, lockStore, availabilityStore, submitter)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userRepo, availabilityStore)
	rideHandler := handler.NewRideHandler(rideService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler: userHandler,
		RideHandler: rideHandler,
		RedisClient: redisClient,
		NewRelicApp: nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, rideService
}
