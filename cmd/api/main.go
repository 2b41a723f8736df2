package main

// @title Route Synthesis Service API
// @version 1.0.0
// @description Сервис синтеза закольцованных маршрутов для ходьбы, бега и велосипеда. Берёт уличную инфраструктуру области, находит плотные кластеры, строит алмазные петли через внешнего провайдера маршрутизации и сохраняет готовые курируемые маршруты.
// @description
// @description Основные возможности:
// @description - Синхронный и асинхронный синтез маршрутов области
// @description - Гибридные маршруты с остановками у спортивных объектов
// @description - Чтение готовых маршрутов с фильтром по активности
// @description - Экспорт маршрута в GPX
// @description - Статистика последнего синтеза области

// @contact.name API Support
// @contact.email support@officeappout.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	_ "github.com/officeappout/out-run-app-sub002/docs/swagger"
	"github.com/officeappout/out-run-app-sub002/internal/config"
	httpDelivery "github.com/officeappout/out-run-app-sub002/internal/delivery/http"
	"github.com/officeappout/out-run-app-sub002/internal/delivery/http/handler"
	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/infrastructure/mapbox"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/logger"
	"github.com/officeappout/out-run-app-sub002/internal/repository/cache"
	"github.com/officeappout/out-run-app-sub002/internal/repository/postgres"
	redisRepo "github.com/officeappout/out-run-app-sub002/internal/repository/redis"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Synthesis Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

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
	log.Info("PostgreSQL connected")

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
	log.Info("Redis connected")

	streamsClient, err := cache.NewRedisStreams(&cfg.RedisStreams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamsClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}

	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize Repositories
	segmentRepo := postgres.NewSegmentRepository(db)
	facilityRepo := postgres.NewFacilityRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)

	log.Info("Repositories initialized")

	// 7. Initialize directions provider with rate limiter
	// Лимитер держит паузу между вызовами внешнего API
	limiter := rate.NewLimiter(rate.Every(cfg.Mapbox.RequestInterval), 1)
	directionsClient := mapbox.NewDirectionsClient(&cfg.Mapbox, log)

	// 8. Initialize Use Cases
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

	routeUC := usecase.NewRouteUseCase(
		routeRepo,
		cacheRepo,
		cfg.Cache.RoutesCacheTTL,
		log,
	)

	log.Info("Use cases initialized")

	// 9. Initialize HTTP Handlers
	synthesisHandler := handler.NewSynthesisHandler(synthesisUC, streamRepo, log)
	routeHandler := handler.NewRouteHandler(routeUC, log)

	log.Info("HTTP handlers initialized")

	// 10. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		synthesisHandler,
		routeHandler,
	)

	log.Info("HTTP server initialized")

	// 11. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 12. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
