package repository

import (
	"context"
	"time"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetRoutes получает закешированный список маршрутов области
	GetRoutes(ctx context.Context, areaID string) ([]domain.CuratedRoute, error)

	// SetRoutes сохраняет список маршрутов области
	SetRoutes(ctx context.Context, areaID string, routes []domain.CuratedRoute, ttl time.Duration) error

	// InvalidateArea удаляет кеш маршрутов и статистики области
	InvalidateArea(ctx context.Context, areaID string) error

	// GetSummary получает последнюю статистику синтеза области
	GetSummary(ctx context.Context, areaID string) (*domain.SynthesisSummary, error)

	// SetSummary сохраняет статистику синтеза области
	SetSummary(ctx context.Context, areaID string, summary *domain.SynthesisSummary, ttl time.Duration) error
}
