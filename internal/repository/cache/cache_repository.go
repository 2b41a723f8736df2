package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func routesKey(areaID string) string {
	return fmt.Sprintf("routes:area:%s", areaID)
}

func summaryKey(areaID string) string {
	return fmt.Sprintf("summary:area:%s", areaID)
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// GetRoutes получает закешированные маршруты области
func (r *cacheRepository) GetRoutes(ctx context.Context, areaID string) ([]domain.CuratedRoute, error) {
	data, err := r.Get(ctx, routesKey(areaID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var routes []domain.CuratedRoute
	if err := json.Unmarshal(data, &routes); err != nil {
		r.logger.Error("Failed to unmarshal routes from cache",
			zap.String("area_id", areaID), zap.Error(err))
		return nil, fmt.Errorf("unmarshal routes: %w", err)
	}

	return routes, nil
}

// SetRoutes сохраняет маршруты области
func (r *cacheRepository) SetRoutes(ctx context.Context, areaID string, routes []domain.CuratedRoute, ttl time.Duration) error {
	data, err := json.Marshal(routes)
	if err != nil {
		r.logger.Error("Failed to marshal routes for cache",
			zap.String("area_id", areaID), zap.Error(err))
		return fmt.Errorf("marshal routes: %w", err)
	}

	return r.Set(ctx, routesKey(areaID), data, ttl)
}

// InvalidateArea сбрасывает кеш маршрутов и статистики области
func (r *cacheRepository) InvalidateArea(ctx context.Context, areaID string) error {
	err := r.client.Del(ctx, routesKey(areaID), summaryKey(areaID)).Err()
	if err != nil {
		r.logger.Error("Failed to invalidate area cache",
			zap.String("area_id", areaID), zap.Error(err))
		return fmt.Errorf("cache invalidate error: %w", err)
	}

	r.logger.Debug("Area cache invalidated", zap.String("area_id", areaID))
	return nil
}

// GetSummary получает статистику последнего синтеза области
func (r *cacheRepository) GetSummary(ctx context.Context, areaID string) (*domain.SynthesisSummary, error) {
	data, err := r.Get(ctx, summaryKey(areaID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var summary domain.SynthesisSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		r.logger.Error("Failed to unmarshal summary from cache",
			zap.String("area_id", areaID), zap.Error(err))
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}

	return &summary, nil
}

// SetSummary сохраняет статистику синтеза области
func (r *cacheRepository) SetSummary(ctx context.Context, areaID string, summary *domain.SynthesisSummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		r.logger.Error("Failed to marshal summary for cache",
			zap.String("area_id", areaID), zap.Error(err))
		return fmt.Errorf("marshal summary: %w", err)
	}

	return r.Set(ctx, summaryKey(areaID), data, ttl)
}
