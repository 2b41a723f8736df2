package usecase

import (
	"math"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
)

// Шаги поворота ромба. Разносят форму петель по кластерам и тирам,
// чтобы соседние маршруты не выглядели одинаково.
const (
	rotationClusterStepDeg = 15.0
	rotationTierStepDeg    = 30.0
)

// BuildDiamondWaypoints строит замкнутый ромб из 5 точек вокруг центра
// кластера: четыре вершины на азимутах 0/90/180/270 с поворотом
// по индексам кластера и тира, пятая точка повторяет первую.
func BuildDiamondWaypoints(center domain.GeoPoint, radiusKm float64, clusterIdx, tierIdx int) []domain.GeoPoint {
	rotation := float64(clusterIdx)*rotationClusterStepDeg + float64(tierIdx)*rotationTierStepDeg

	points := make([]domain.GeoPoint, 0, 5)
	for _, bearing := range []float64{0, 90, 180, 270} {
		points = append(points, geo.Destination(center, math.Mod(bearing+rotation, 360.0), radiusKm))
	}
	points = append(points, points[0])

	return points
}
