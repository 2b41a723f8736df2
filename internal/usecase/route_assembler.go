package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
)

// RouteCandidate - кандидат после маршрутизации и упрощения,
// ещё не прошедший валидацию
type RouteCandidate struct {
	AreaID     string
	Activity   domain.ActivityType
	Tier       domain.TierConfig
	Cluster    domain.DensityCluster
	Path       []domain.GeoPoint
	DistanceKm float64
	Stops      []domain.FacilityStop
	HybridType domain.HybridType
	DataSource domain.DataSource
}

// RouteAssembler валидирует кандидатов и собирает финальные маршруты
// с детерминированным именем и производными полями
type RouteAssembler struct {
	cfg    domain.SynthesisConfig
	logger *zap.Logger
}

func NewRouteAssembler(cfg domain.SynthesisConfig, logger *zap.Logger) *RouteAssembler {
	return &RouteAssembler{cfg: cfg, logger: logger}
}

// Assemble проверяет кандидата и строит CuratedRoute.
// Ошибка означает отбраковку одного кандидата, конвейер продолжается.
func (a *RouteAssembler) Assemble(c RouteCandidate) (*domain.CuratedRoute, error) {
	// слишком мало точек - провайдер вернул прямую или треугольник,
	// а не настоящий уличный маршрут
	if len(c.Path) < a.cfg.MinRoutePoints {
		return nil, fmt.Errorf("polyline too sparse: %d points, need %d", len(c.Path), a.cfg.MinRoutePoints)
	}

	minKm := c.Tier.MinKm * a.cfg.MinDistanceFactor
	maxKm := c.Tier.MaxKm * a.cfg.MaxDistanceFactor
	if c.DistanceKm < minKm || c.DistanceKm > maxKm {
		return nil, fmt.Errorf("distance %.2f km outside window [%.2f, %.2f]", c.DistanceKm, minKm, maxKm)
	}

	path := c.Path
	if !geo.IsClosedLoop(path, a.cfg.LoopCloseToleranceM) {
		// петлю не бракуем, а принудительно замыкаем стартовой точкой
		closed := make([]domain.GeoPoint, len(path), len(path)+1)
		copy(closed, path)
		path = append(closed, path[0])

		a.logger.Debug("Loop force-closed",
			zap.String("tier", c.Tier.Name),
			zap.Float64("gap_m", geo.DistanceM(c.Path[0], c.Path[len(c.Path)-1])))
	}

	params, ok := a.cfg.Params(c.Activity)
	if !ok {
		return nil, fmt.Errorf("no params configured for activity %s", c.Activity)
	}

	hybrid := len(c.Stops) > 0
	hybridType := c.HybridType
	if !hybrid {
		hybridType = ""
	}

	route := &domain.CuratedRoute{
		ID:          uuid.New(),
		AreaID:      c.AreaID,
		Name:        routeName(c.Activity, c.Tier.Name, hybrid, hybridType),
		Activity:    c.Activity,
		TierName:    c.Tier.Name,
		DistanceKm:  math.Round(c.DistanceKm*100) / 100,
		DurationMin: int(math.Round(c.DistanceKm / params.SpeedKmh * 60)),
		Calories:    int(math.Round(c.DistanceKm * params.CaloriesPerKm)),
		Path:        path,
		Hybrid:      hybrid,
		HybridType:  hybridType,
		Stops:       c.Stops,
		DataSource:  c.DataSource,
		ClusterCell: c.Cluster.CellToken,
		CreatedAt:   time.Now().UTC(),
	}

	return route, nil
}

// activityLoopLabels - имена обычных маршрутов по активности
var activityLoopLabels = map[domain.ActivityType]string{
	domain.ActivityRunning: "Morning Run",
	domain.ActivityWalking: "City Walk",
	domain.ActivityCycling: "City Ride",
}

// activityHybridLabels - короткие имена активности для гибридных маршрутов
var activityHybridLabels = map[domain.ActivityType]string{
	domain.ActivityRunning: "Run",
	domain.ActivityWalking: "Walk",
	domain.ActivityCycling: "Ride",
}

var tierLabels = map[string]string{
	"short":  "Short",
	"medium": "Medium",
	"long":   "Long",
}

var hybridMixLabels = map[domain.HybridType]string{
	domain.HybridTypePrimary:   "Calisthenics",
	domain.HybridTypeSecondary: "Stairs",
	domain.HybridTypeTertiary:  "Park Benches",
	domain.HybridTypeMixed:     "Strength & Stairs",
}

// routeName строит детерминированное имя маршрута.
// Гибридное имя кодирует состав остановок, обычное - дистанционный тир.
func routeName(activity domain.ActivityType, tierName string, hybrid bool, hybridType domain.HybridType) string {
	if hybrid {
		return fmt.Sprintf("Hybrid %s — %s", activityHybridLabels[activity], hybridMixLabels[hybridType])
	}

	tierLabel, ok := tierLabels[tierName]
	if !ok {
		tierLabel = tierName
	}
	return fmt.Sprintf("%s Loop — %s", activityLoopLabels[activity], tierLabel)
}
