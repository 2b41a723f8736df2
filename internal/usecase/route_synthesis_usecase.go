package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
)

// RateWaiter ограничивает частоту обращений к провайдеру маршрутизации.
// *rate.Limiter подходит без обёрток.
type RateWaiter interface {
	Wait(ctx context.Context) error
}

// RouteSynthesisUseCase - конвейер синтеза закольцованных маршрутов.
// Кандидаты (кластер x тир) обрабатываются строго последовательно:
// параллельного натиска на провайдера маршрутизации нет сознательно,
// лимитер держит интервал между вызовами.
type RouteSynthesisUseCase struct {
	segmentRepo  repository.SegmentRepository
	facilityRepo repository.FacilityRepository
	directions   repository.DirectionsRepository
	routeRepo    repository.RouteRepository
	cacheRepo    repository.CacheRepository
	limiter      RateWaiter

	filter    *SegmentFilter
	clusterer *DensityClusterer
	snapper   *FacilitySnapper
	assembler *RouteAssembler

	cfg      domain.SynthesisConfig
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewRouteSynthesisUseCase(
	segmentRepo repository.SegmentRepository,
	facilityRepo repository.FacilityRepository,
	directions repository.DirectionsRepository,
	routeRepo repository.RouteRepository,
	cacheRepo repository.CacheRepository,
	limiter RateWaiter,
	cfg domain.SynthesisConfig,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *RouteSynthesisUseCase {
	return &RouteSynthesisUseCase{
		segmentRepo:  segmentRepo,
		facilityRepo: facilityRepo,
		directions:   directions,
		routeRepo:    routeRepo,
		cacheRepo:    cacheRepo,
		limiter:      limiter,
		filter:       NewSegmentFilter(logger),
		clusterer:    NewDensityClusterer(cfg, logger),
		snapper:      NewFacilitySnapper(cfg, logger),
		assembler:    NewRouteAssembler(cfg, logger),
		cfg:          cfg,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Synthesize выполняет полный проход конвейера для области.
// Результат с нулём маршрутов - нормальный исход, не ошибка:
// фатальны только недоступность источников данных и отмена контекста.
func (uc *RouteSynthesisUseCase) Synthesize(
	ctx context.Context,
	req dto.SynthesizeRequest,
	sink domain.ProgressSink,
) (*domain.SynthesisResult, error) {
	if sink == nil {
		sink = domain.NopSink{}
	}

	activity := domain.ActivityType(req.Activity)
	if !activity.Valid() {
		return nil, errors.ErrInvalidActivity
	}
	params, ok := uc.cfg.Params(activity)
	if !ok {
		return nil, errors.ErrInvalidActivity
	}

	maxRoutes := req.MaxRoutes
	if maxRoutes <= 0 {
		maxRoutes = uc.cfg.RoutesPerArea
	}

	uc.logger.Info("Route synthesis started",
		zap.String("area_id", req.AreaID),
		zap.String("activity", string(activity)),
		zap.Bool("hybrid", req.Hybrid),
		zap.Int("max_routes", maxRoutes))

	// 1. Загрузка исходных данных: недоступный источник - жёсткий отказ
	sink.Publish(domain.ProgressEvent{Phase: domain.PhaseFetch, Detail: "Loading infrastructure segments", Percent: 5})

	segments, err := uc.segmentRepo.FetchByArea(ctx, req.AreaID)
	if err != nil {
		uc.logger.Error("Failed to fetch segments", zap.String("area_id", req.AreaID), zap.Error(err))
		return nil, fmt.Errorf("fetch segments: %w", err)
	}

	var facilities []domain.FacilityCandidate
	if req.Hybrid {
		sink.Publish(domain.ProgressEvent{Phase: domain.PhaseFetch, Detail: "Loading fitness facilities", Percent: 10})

		raw, err := uc.facilityRepo.FetchByArea(ctx, req.AreaID)
		if err != nil {
			uc.logger.Error("Failed to fetch facilities", zap.String("area_id", req.AreaID), zap.Error(err))
			return nil, fmt.Errorf("fetch facilities: %w", err)
		}
		facilities = tierCandidates(raw, params.MinStairStepCount)
	}

	result := &domain.SynthesisResult{
		AreaID:   req.AreaID,
		Activity: activity,
		Hybrid:   req.Hybrid,
		Routes:   []domain.CuratedRoute{},
	}

	// 2. Фильтр совместимости
	sink.Publish(domain.ProgressEvent{Phase: domain.PhaseFilter, Detail: "Filtering compatible infrastructure", Percent: 15})

	filtered := uc.filter.Filter(segments, activity)
	result.Summary = domain.SynthesisSummary{
		TotalInfraKm:       filtered.TotalKm,
		SegmentsProcessed:  len(segments),
		CompatibleSegments: len(filtered.Segments),
		DataSource:         filtered.DataSource,
	}

	if len(filtered.Segments) == 0 {
		// нет совместимой инфраструктуры: терминальное, но ожидаемое состояние
		uc.logger.Info("No compatible infrastructure",
			zap.String("area_id", req.AreaID),
			zap.String("activity", string(activity)))
		sink.Publish(domain.ProgressEvent{Phase: domain.PhaseDone, Detail: "No compatible infrastructure", Percent: 100})
		return result, nil
	}

	// 3. Кластеризация плотности
	sink.Publish(domain.ProgressEvent{Phase: domain.PhaseCluster, Detail: "Clustering segment density", Percent: 30})

	clusters, found := uc.clusterer.Cluster(filtered.Segments)
	result.Summary.ClustersFound = found
	result.Summary.ClustersUsed = len(clusters)

	// 4. Сшивка: кластер x тир, плотные кластеры и короткие тиры первыми
	routes, err := uc.stitchRoutes(ctx, stitchInput{
		areaID:     req.AreaID,
		activity:   activity,
		params:     params,
		clusters:   clusters,
		facilities: facilities,
		dataSource: filtered.DataSource,
		maxRoutes:  maxRoutes,
		hybrid:     req.Hybrid,
	}, sink)
	if err != nil {
		return nil, err
	}

	result.Routes = routes
	result.Summary.RoutesGenerated = len(routes)
	for _, r := range routes {
		if r.Hybrid {
			result.Summary.HybridRoutes++
		}
	}

	// 5. Персист: полная замена маршрутов области
	sink.Publish(domain.ProgressEvent{Phase: domain.PhaseSave, Detail: "Replacing area routes", Percent: 90})

	if err := uc.routeRepo.ReplaceForArea(ctx, req.AreaID, routes); err != nil {
		uc.logger.Error("Failed to replace routes", zap.String("area_id", req.AreaID), zap.Error(err))
		return nil, fmt.Errorf("replace routes: %w", err)
	}
	uc.refreshCache(ctx, req.AreaID, routes, &result.Summary)

	sink.Publish(domain.ProgressEvent{
		Phase:   domain.PhaseDone,
		Detail:  fmt.Sprintf("Generated %d routes", len(routes)),
		Percent: 100,
	})

	uc.logger.Info("Route synthesis finished",
		zap.String("area_id", req.AreaID),
		zap.Int("routes", len(routes)),
		zap.Int("hybrid_routes", result.Summary.HybridRoutes),
		zap.String("data_source", string(result.Summary.DataSource)))

	return result, nil
}

type stitchInput struct {
	areaID     string
	activity   domain.ActivityType
	params     domain.ActivityParams
	clusters   []domain.DensityCluster
	facilities []domain.FacilityCandidate
	dataSource domain.DataSource
	maxRoutes  int
	hybrid     bool
}

// stitchRoutes перебирает кандидатов (кластер x тир) последовательно.
// Отказ провайдера или брак валидации снимает одного кандидата,
// батч продолжается и деградирует до меньшего числа маршрутов.
func (uc *RouteSynthesisUseCase) stitchRoutes(
	ctx context.Context,
	in stitchInput,
	sink domain.ProgressSink,
) ([]domain.CuratedRoute, error) {
	routes := make([]domain.CuratedRoute, 0, in.maxRoutes)

	totalCandidates := len(in.clusters) * len(in.params.Tiers)
	processed := 0

	for clusterIdx, cluster := range in.clusters {
		if len(routes) >= in.maxRoutes {
			break
		}

		for tierIdx, tier := range in.params.Tiers {
			if len(routes) >= in.maxRoutes {
				break
			}
			// кооперативная отмена между кандидатами
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			processed++
			sink.Publish(domain.ProgressEvent{
				Phase:   domain.PhaseStitch,
				Detail:  fmt.Sprintf("Building loop %d/%d", processed, totalCandidates),
				Percent: 40 + 40*processed/totalCandidates,
			})

			waypoints := BuildDiamondWaypoints(cluster.Center, tier.RadiusKm, clusterIdx, tierIdx)

			var stops []domain.FacilityStop
			var hybridType domain.HybridType
			if in.hybrid && len(in.facilities) > 0 {
				snapped := uc.snapper.Snap(waypoints, in.facilities, in.activity, tier)
				waypoints = snapped.Waypoints
				stops = snapped.Stops
				hybridType = snapped.HybridType
			}

			// интервал между вызовами провайдера: ровно один Wait на попытку
			if err := uc.limiter.Wait(ctx); err != nil {
				return nil, err
			}

			directionsRoute, err := uc.directions.Route(ctx, waypoints, in.activity, in.params.ContinueStraight)
			if err != nil {
				uc.logger.Warn("Directions request failed, skipping candidate",
					zap.Int("cluster", clusterIdx),
					zap.String("tier", tier.Name),
					zap.Error(err))
				continue
			}

			simplified := geo.Simplify(directionsRoute.Path, in.params.SimplifyToleranceM)

			route, err := uc.assembler.Assemble(RouteCandidate{
				AreaID:     in.areaID,
				Activity:   in.activity,
				Tier:       tier,
				Cluster:    cluster,
				Path:       simplified,
				DistanceKm: directionsRoute.DistanceMeters / 1000.0,
				Stops:      stops,
				HybridType: hybridType,
				DataSource: in.dataSource,
			})
			if err != nil {
				uc.logger.Debug("Candidate rejected",
					zap.Int("cluster", clusterIdx),
					zap.String("tier", tier.Name),
					zap.Error(err))
				continue
			}

			routes = append(routes, *route)
		}
	}

	return routes, nil
}

// refreshCache обновляет кеш области после замены маршрутов.
// Ошибки кеша не фатальны - только предупреждение в лог.
func (uc *RouteSynthesisUseCase) refreshCache(
	ctx context.Context,
	areaID string,
	routes []domain.CuratedRoute,
	summary *domain.SynthesisSummary,
) {
	if err := uc.cacheRepo.InvalidateArea(ctx, areaID); err != nil {
		uc.logger.Warn("Failed to invalidate area cache", zap.String("area_id", areaID), zap.Error(err))
	}
	if err := uc.cacheRepo.SetRoutes(ctx, areaID, routes, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache routes", zap.String("area_id", areaID), zap.Error(err))
	}
	if err := uc.cacheRepo.SetSummary(ctx, areaID, summary, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache summary", zap.String("area_id", areaID), zap.Error(err))
	}
}

// tierCandidates выводит тир для каждого кандидата и отсеивает непригодных
func tierCandidates(raw []domain.FacilityCandidate, minStairSteps int) []domain.FacilityCandidate {
	out := make([]domain.FacilityCandidate, 0, len(raw))
	for _, c := range raw {
		tier, ok := domain.DeriveFacilityTier(c.Category, c.StepCount, c.NearParkOrPlaza, minStairSteps)
		if !ok {
			continue
		}
		c.Tier = tier
		out = append(out, c)
	}
	return out
}
