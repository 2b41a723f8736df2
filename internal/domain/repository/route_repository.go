package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// RouteRepository определяет хранилище готовых маршрутов
type RouteRepository interface {
	// ReplaceForArea атомарно заменяет все маршруты области новым батчем.
	// Инкрементального версионирования нет: старые маршруты удаляются.
	ReplaceForArea(ctx context.Context, areaID string, routes []domain.CuratedRoute) error

	// GetByArea возвращает маршруты области, опционально по активности
	GetByArea(ctx context.Context, areaID string, activity *domain.ActivityType) ([]domain.CuratedRoute, error)

	// GetByID возвращает один маршрут
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CuratedRoute, error)
}
