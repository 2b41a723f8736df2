package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
)

// RouteUseCase - чтение готовых маршрутов для API
type RouteUseCase struct {
	routeRepo repository.RouteRepository
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewRouteUseCase(
	routeRepo repository.RouteRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *RouteUseCase {
	return &RouteUseCase{
		routeRepo: routeRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// ListByArea возвращает маршруты области. Полный список читается
// через cache-aside, фильтр по активности применяется в памяти.
func (uc *RouteUseCase) ListByArea(ctx context.Context, req dto.ListRoutesRequest) (*dto.ListRoutesResponse, error) {
	var activityFilter *domain.ActivityType
	if req.Activity != "" {
		activity := domain.ActivityType(req.Activity)
		if !activity.Valid() {
			return nil, errors.ErrInvalidActivity
		}
		activityFilter = &activity
	}

	routes, err := uc.loadAreaRoutes(ctx, req.AreaID)
	if err != nil {
		uc.logger.Error("Failed to load area routes", zap.String("area_id", req.AreaID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.RouteListItem, 0, len(routes))
	for _, r := range routes {
		if activityFilter != nil && r.Activity != *activityFilter {
			continue
		}
		items = append(items, dto.ConvertRouteListItem(r))
	}

	return &dto.ListRoutesResponse{Routes: items, Total: len(items)}, nil
}

// loadAreaRoutes - cache-aside чтение полного списка области
func (uc *RouteUseCase) loadAreaRoutes(ctx context.Context, areaID string) ([]domain.CuratedRoute, error) {
	cached, err := uc.cacheRepo.GetRoutes(ctx, areaID)
	if err != nil {
		uc.logger.Warn("Routes cache read failed", zap.String("area_id", areaID), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	routes, err := uc.routeRepo.GetByArea(ctx, areaID, nil)
	if err != nil {
		return nil, err
	}

	if err := uc.cacheRepo.SetRoutes(ctx, areaID, routes, uc.cacheTTL); err != nil {
		uc.logger.Warn("Routes cache write failed", zap.String("area_id", areaID), zap.Error(err))
	}

	return routes, nil
}

// GetByID возвращает один маршрут с полной геометрией
func (uc *RouteUseCase) GetByID(ctx context.Context, id string) (*domain.CuratedRoute, error) {
	routeID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.ErrInvalidRouteID.WithDetails(map[string]interface{}{
			"id": id,
		})
	}

	route, err := uc.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		uc.logger.Error("Failed to get route", zap.String("route_id", id), zap.Error(err))
		return nil, err
	}
	if route == nil {
		return nil, errors.ErrRouteNotFound
	}

	return route, nil
}

// GetSummary возвращает статистику последнего синтеза области
func (uc *RouteUseCase) GetSummary(ctx context.Context, areaID string) (*domain.SynthesisSummary, error) {
	summary, err := uc.cacheRepo.GetSummary(ctx, areaID)
	if err != nil {
		uc.logger.Error("Failed to get summary", zap.String("area_id", areaID), zap.Error(err))
		return nil, errors.ErrCacheError
	}
	if summary == nil {
		return nil, errors.ErrAreaNotFound
	}

	return summary, nil
}
