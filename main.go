// Package main provides the main entry point for the call flow processor
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-flow-processor/app/fetcher"
	"call-flow-processor/app/handlers"
	"call-flow-processor/app/lease"
	"call-flow-processor/app/router"
	"call-flow-processor/app/uploader"
	"call-flow-processor/app/worker"
	"call-flow-processor/config"
	"call-flow-processor/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.Config
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting call flow processor...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers; each stop waits for the in-flight cycle
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeRedis initializes the Redis client and verifies connectivity
func initializeRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.DB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.URL, cfg.DB)
	return rc, nil
}

// startRedisHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startRedisHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.Config) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeRedis(cfg.Redis)
	if err != nil {
		return nil, err
	}

	cancel := startRedisHealthMonitor(context.Background(), rc, cfg.Redis.HealthCheckInterval)
	stopFuncs = append(stopFuncs, cancel)

	// Initialize repositories
	callRepo := repository.NewCallRepository(db)
	eventRepo := repository.NewCallEventRepository(db)
	connRepo := repository.NewConnectionRepository(db)
	opRepo := repository.NewOperatorRepository(db)
	cdrRepo := repository.NewCDRRepository(db)
	cursorRepo := repository.NewFetchCursorRepository(db)
	statusRepo := repository.NewCDRUploadStatusRepository(db)

	ls := lease.NewRedisLease(rc, cfg.Redis.Prefix)

	// Source fetchers
	callFetcher := fetcher.NewCallFetcher(cfg.Fetchers.Calls, cursorRepo, callRepo, worker.NewLogger(cfg.Logging, fetcher.CallWorkerID))
	eventFetcher := fetcher.NewCallEventFetcher(cfg.Fetchers.CallEvents, cursorRepo, eventRepo, worker.NewLogger(cfg.Logging, fetcher.CallEventWorkerID))
	connFetcher := fetcher.NewConnectionFetcher(cfg.Fetchers.Connections, cursorRepo, connRepo, worker.NewLogger(cfg.Logging, fetcher.ConnectionWorkerID))
	opFetcher := fetcher.NewOperatorFetcher(cfg.Fetchers.Operators, cursorRepo, opRepo, worker.NewLogger(cfg.Logging, fetcher.OperatorWorkerID))

	// CDR producers
	internalUploader := uploader.NewInternalCDRUploader(
		db, statusRepo, callRepo, eventRepo, connRepo, opRepo, cdrRepo,
		cfg.Producers.BatchSize, worker.NewLogger(cfg.Logging, uploader.InternalWorkerID),
	)
	externalUploader := uploader.NewExternalCDRUploader(
		cfg.Producers, statusRepo, callRepo, eventRepo, connRepo, opRepo,
		worker.NewLogger(cfg.Logging, uploader.ExternalWorkerID),
	)

	engines := []*worker.Engine{
		worker.NewEngine(callFetcher, ls, cfg.Fetchers.Calls.PollInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, fetcher.CallWorkerID)),
		worker.NewEngine(eventFetcher, ls, cfg.Fetchers.CallEvents.PollInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, fetcher.CallEventWorkerID)),
		worker.NewEngine(connFetcher, ls, cfg.Fetchers.Connections.PollInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, fetcher.ConnectionWorkerID)),
		worker.NewEngine(opFetcher, ls, cfg.Fetchers.Operators.PollInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, fetcher.OperatorWorkerID)),
		worker.NewEngine(internalUploader, ls, cfg.Producers.PollInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, uploader.InternalWorkerID)),
		worker.NewEngine(externalUploader, ls, cfg.Producers.PollInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, uploader.ExternalWorkerID)),
	}
	if cfg.Producers.PruneUploaded {
		pruner := uploader.NewMarkerPruner(
			statusRepo,
			[]string{uploader.InternalWorkerID, uploader.ExternalWorkerID},
			worker.NewLogger(cfg.Logging, uploader.PrunerWorkerID),
		)
		engines = append(engines, worker.NewEngine(pruner, ls, cfg.Producers.PruneInterval, cfg.Lease.TTL, worker.NewLogger(cfg.Logging, uploader.PrunerWorkerID)))
	}
	for _, engine := range engines {
		stopFuncs = append(stopFuncs, engine.Start(context.Background()))
	}

	statsHandler := handlers.NewStatisticsHandler(callRepo, opRepo)
	appRouter := router.NewFiberRouter(cfg.Server, statsHandler)

	application := &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
