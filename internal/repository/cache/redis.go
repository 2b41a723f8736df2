package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/officeappout/out-run-app-sub002/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis - подключение к Redis для кеша маршрутов и статистики
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis создает подключение и проверяет его пингом
func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := ping(client, "redis"); err != nil {
		return nil, err
	}

	logger.Info("Redis connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return &Redis{
		client: client,
		logger: logger,
	}, nil
}

// Close закрывает подключение
func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}

// Health проверяет доступность Redis
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Client возвращает низкоуровневый клиент
func (r *Redis) Client() *redis.Client {
	return r.client
}

// ping проверяет соединение при старте
func ping(client *redis.Client, target string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", target, err)
	}

	return nil
}
