package usecase

import (
	"fmt"
	"sort"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
)

// s2CellLevel - уровень ячейки S2 для токена происхождения кластера
// (~1.2 км на стороне ячейки, достаточно для атрибуции района)
const s2CellLevel = 13

// DensityClusterer группирует середины сегментов в кластеры плотности
// упрощённым k-means. Инициализация детерминированная, без random:
// повторный запуск на тех же данных даёт тот же набор кластеров.
type DensityClusterer struct {
	cfg    domain.SynthesisConfig
	logger *zap.Logger
}

func NewDensityClusterer(cfg domain.SynthesisConfig, logger *zap.Logger) *DensityClusterer {
	return &DensityClusterer{cfg: cfg, logger: logger}
}

// Cluster возвращает топ кластеров по убыванию плотности и общее число
// найденных непустых кластеров до усечения
func (c *DensityClusterer) Cluster(segments []domain.InfrastructureSegment) ([]domain.DensityCluster, int) {
	if len(segments) == 0 {
		return nil, 0
	}

	midpoints := make([]domain.GeoPoint, len(segments))
	for i := range segments {
		midpoints[i] = segments[i].Midpoint()
	}

	k := c.clusterCount(len(midpoints))
	centers := c.initialCenters(midpoints, k)

	assignments := make([]int, len(midpoints))
	for iter := 0; iter < c.cfg.MaxKMeansIterations; iter++ {
		// назначаем каждую точку ближайшему центру
		for i, p := range midpoints {
			best := 0
			bestDist := geo.DistanceKm(p, centers[0])
			for j := 1; j < len(centers); j++ {
				if d := geo.DistanceKm(p, centers[j]); d < bestDist {
					best = j
					bestDist = d
				}
			}
			assignments[i] = best
		}

		// пересчитываем центры как среднее назначенных точек
		moved := 0.0
		for j := range centers {
			sumLat, sumLon := 0.0, 0.0
			count := 0
			for i, a := range assignments {
				if a == j {
					sumLat += midpoints[i].Lat
					sumLon += midpoints[i].Lon
					count++
				}
			}
			if count == 0 {
				continue // пустой кластер держит старый центр, отбросим позже
			}

			next := domain.GeoPoint{Lat: sumLat / float64(count), Lon: sumLon / float64(count)}
			if d := geo.DistanceM(centers[j], next); d > moved {
				moved = d
			}
			centers[j] = next
		}

		if moved <= c.cfg.ConvergenceM {
			break
		}
	}

	// собираем непустые кластеры
	clusters := make([]domain.DensityCluster, 0, k)
	for j := range centers {
		indices := make([]int, 0)
		for i, a := range assignments {
			if a == j {
				indices = append(indices, i)
			}
		}
		if len(indices) == 0 {
			continue
		}

		clusters = append(clusters, domain.DensityCluster{
			Center:         centers[j],
			Density:        len(indices),
			SegmentIndices: indices,
			CellToken:      cellToken(centers[j]),
		})
	}

	found := len(clusters)

	// плотные кластеры первыми, при равенстве - стабильный порядок по первому сегменту
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Density != clusters[j].Density {
			return clusters[i].Density > clusters[j].Density
		}
		return clusters[i].SegmentIndices[0] < clusters[j].SegmentIndices[0]
	})

	// верхняя граница числа кластеров ограничивает вызовы внешнего API
	if len(clusters) > c.cfg.MaxClusters {
		clusters = clusters[:c.cfg.MaxClusters]
	}

	c.logger.Debug("Density clustering finished",
		zap.Int("segments", len(segments)),
		zap.Int("k", k),
		zap.Int("found", found),
		zap.Int("used", len(clusters)))

	return clusters, found
}

// clusterCount масштабирует k с объёмом сегментов и зажимает в границы
func (c *DensityClusterer) clusterCount(points int) int {
	k := (points + c.cfg.SegmentsPerCluster - 1) / c.cfg.SegmentsPerCluster
	if k < c.cfg.MinKMeansClusters {
		k = c.cfg.MinKMeansClusters
	}
	if k > c.cfg.MaxKMeansClusters {
		k = c.cfg.MaxKMeansClusters
	}
	if k > points {
		k = points
	}
	return k
}

// initialCenters выбирает k равномерно распределённых точек
// из отсортированных по долготе середин
func (c *DensityClusterer) initialCenters(midpoints []domain.GeoPoint, k int) []domain.GeoPoint {
	sorted := make([]domain.GeoPoint, len(midpoints))
	copy(sorted, midpoints)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lon != sorted[j].Lon {
			return sorted[i].Lon < sorted[j].Lon
		}
		return sorted[i].Lat < sorted[j].Lat
	})

	centers := make([]domain.GeoPoint, k)
	if k == 1 {
		centers[0] = sorted[len(sorted)/2]
		return centers
	}

	step := float64(len(sorted)-1) / float64(k-1)
	for i := 0; i < k; i++ {
		centers[i] = sorted[int(float64(i)*step)]
	}
	return centers
}

// cellToken - стабильный токен ячейки S2 для центра кластера
func cellToken(p domain.GeoPoint) string {
	ll := s2.LatLngFromDegrees(p.Lat, p.Lon)
	cellID := s2.CellIDFromLatLng(ll).Parent(s2CellLevel)
	return fmt.Sprintf("s2_%d", uint64(cellID))
}
