package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/officeappout/out-run-app-sub002/internal/config"
	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/infrastructure/mapbox"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/logger"
	"github.com/officeappout/out-run-app-sub002/internal/repository/cache"
	"github.com/officeappout/out-run-app-sub002/internal/repository/postgres"
	redisRepo "github.com/officeappout/out-run-app-sub002/internal/repository/redis"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
	"github.com/officeappout/out-run-app-sub002/internal/worker"
	"github.com/officeappout/out-run-app-sub002/internal/worker/synthesis"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Synthesis Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("request_interval", cfg.Mapbox.RequestInterval))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis (cache + streams)
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	streamsClient, err := cache.NewRedisStreams(&cfg.RedisStreams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamsClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	segmentRepo := postgres.NewSegmentRepository(db)
	facilityRepo := postgres.NewFacilityRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)

	// 6. Initialize synthesis engine
	limiter := rate.NewLimiter(rate.Every(cfg.Mapbox.RequestInterval), 1)
	directionsClient := mapbox.NewDirectionsClient(&cfg.Mapbox, log)

	engineCfg := domain.DefaultSynthesisConfig()
	if cfg.Synthesis.RoutesPerArea > 0 {
		engineCfg.RoutesPerArea = cfg.Synthesis.RoutesPerArea
	}

	synthesisUC := usecase.NewRouteSynthesisUseCase(
		segmentRepo,
		facilityRepo,
		directionsClient,
		routeRepo,
		cacheRepo,
		limiter,
		engineCfg,
		cfg.Cache.SummaryCacheTTL,
		log,
	)

	// 7. Initialize workers
	synthesisWorker := synthesis.NewRouteSynthesisWorker(
		streamRepo,
		synthesisUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(synthesisWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	// Stop worker manager
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
