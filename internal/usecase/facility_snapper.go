package usecase

import (
	"math"

	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
)

// внутренние вейпоинты ромба; стартовый якорь (0) и замыкание (4) не трогаем
var interiorWaypointIndices = []int{1, 2, 3}

var tierPriorityOrder = []domain.FacilityTier{
	domain.FacilityTierPrimary,
	domain.FacilityTierSecondary,
	domain.FacilityTierTertiary,
}

// FacilitySnapper подтягивает внутренние вейпоинты к фитнес-объектам.
// Для ходьбы действует режим исследования (разные тиры в одном маршруте),
// для бега и велосипеда - строгая дисциплина одного тира.
type FacilitySnapper struct {
	cfg    domain.SynthesisConfig
	logger *zap.Logger
}

func NewFacilitySnapper(cfg domain.SynthesisConfig, logger *zap.Logger) *FacilitySnapper {
	return &FacilitySnapper{cfg: cfg, logger: logger}
}

// SnapResult - вейпоинты после привязки и собранные остановки
type SnapResult struct {
	Waypoints  []domain.GeoPoint
	Stops      []domain.FacilityStop
	HybridType domain.HybridType
}

// Snap возвращает копию вейпоинтов с внутренними точками, перенесёнными
// на подходящие объекты. Кандидаты должны приходить уже с тиром.
// Замыкающая точка пересинхронизируется со стартовой.
func (s *FacilitySnapper) Snap(
	waypoints []domain.GeoPoint,
	candidates []domain.FacilityCandidate,
	activity domain.ActivityType,
	tier domain.TierConfig,
) SnapResult {
	out := make([]domain.GeoPoint, len(waypoints))
	copy(out, waypoints)

	result := SnapResult{Waypoints: out}
	if len(waypoints) < 5 || len(candidates) == 0 {
		return result
	}

	params, ok := s.cfg.Params(activity)
	if !ok {
		return result
	}

	// целевая дистанция тира задаёт лимит остановок до вызова маршрутизации
	nominalKm := (tier.MinKm + tier.MaxKm) / 2.0
	maxStops := int(math.Floor(nominalKm / params.StopKmDivisor))
	if maxStops > params.MaxHybridStops {
		maxStops = params.MaxHybridStops
	}
	if maxStops <= 0 {
		return result
	}

	byTier := groupByTier(candidates)

	if activity == domain.ActivityWalking {
		s.snapExploration(&result, byTier, maxStops)
	} else {
		s.snapPerformance(&result, byTier, maxStops)
	}

	// замыкание следует за (возможно нетронутым) стартом
	result.Waypoints[len(result.Waypoints)-1] = result.Waypoints[0]

	if len(result.Stops) > 0 {
		s.logger.Debug("Facility snapping applied",
			zap.String("activity", string(activity)),
			zap.String("tier", tier.Name),
			zap.Int("stops", len(result.Stops)),
			zap.String("hybrid_type", string(result.HybridType)))
	}

	return result
}

// snapExploration - прогулочный режим: на каждом вейпоинте ищем во всех
// тирах, предпочитая ещё не использованный тир. Несколько тиров в одном
// маршруте дают тип mixed.
func (s *FacilitySnapper) snapExploration(
	result *SnapResult,
	byTier map[domain.FacilityTier][]domain.FacilityCandidate,
	maxStops int,
) {
	usedFacilities := make(map[int64]bool)
	usedTiers := make(map[domain.FacilityTier]bool)

	for _, idx := range interiorWaypointIndices {
		if len(result.Stops) >= maxStops {
			break
		}

		for _, t := range explorationTierOrder(usedTiers) {
			candidate := s.nearestCandidate(result.Waypoints[idx], byTier[t], usedFacilities)
			if candidate == nil {
				continue
			}

			s.applySnap(result, idx, candidate, domain.StopTypeJourney)
			usedFacilities[candidate.ID] = true
			usedTiers[t] = true
			break
		}
	}

	switch len(usedTiers) {
	case 0:
	case 1:
		for t := range usedTiers {
			result.HybridType = hybridTypeForTier(t)
		}
	default:
		result.HybridType = domain.HybridTypeMixed
	}
}

// snapPerformance - кардио-режим: тиры в строгом порядке приоритета,
// первый сработавший тир закрывает остальные для этого маршрута
func (s *FacilitySnapper) snapPerformance(
	result *SnapResult,
	byTier map[domain.FacilityTier][]domain.FacilityCandidate,
	maxStops int,
) {
	usedFacilities := make(map[int64]bool)
	var lockedTier *domain.FacilityTier

	for _, idx := range interiorWaypointIndices {
		if len(result.Stops) >= maxStops {
			break
		}

		tiers := tierPriorityOrder
		if lockedTier != nil {
			tiers = []domain.FacilityTier{*lockedTier}
		}

		for _, t := range tiers {
			candidate := s.nearestCandidate(result.Waypoints[idx], byTier[t], usedFacilities)
			if candidate == nil {
				continue
			}

			s.applySnap(result, idx, candidate, domain.StopTypePitStop)
			usedFacilities[candidate.ID] = true
			if lockedTier == nil {
				locked := t
				lockedTier = &locked
				result.HybridType = hybridTypeForTier(t)
			}
			break
		}
	}
}

// applySnap переносит вейпоинт на объект и регистрирует остановку
func (s *FacilitySnapper) applySnap(
	result *SnapResult,
	waypointIdx int,
	candidate *domain.FacilityCandidate,
	stopType domain.FacilityStopType,
) {
	result.Waypoints[waypointIdx] = domain.GeoPoint{Lat: candidate.Lat, Lon: candidate.Lon}
	result.Stops = append(result.Stops, domain.FacilityStop{
		FacilityID:    candidate.ID,
		Name:          candidate.Name,
		Lat:           candidate.Lat,
		Lon:           candidate.Lon,
		Tier:          candidate.Tier,
		WaypointIndex: waypointIdx,
		StopType:      stopType,
	})
}

// nearestCandidate ищет ближайший неиспользованный объект в радиусе привязки.
// При равной дистанции побеждает меньший ID, чтобы выбор был стабильным.
func (s *FacilitySnapper) nearestCandidate(
	waypoint domain.GeoPoint,
	candidates []domain.FacilityCandidate,
	used map[int64]bool,
) *domain.FacilityCandidate {
	var best *domain.FacilityCandidate
	bestDist := s.cfg.SnapRadiusM

	for i := range candidates {
		c := &candidates[i]
		if used[c.ID] {
			continue
		}

		d := geo.DistanceM(waypoint, domain.GeoPoint{Lat: c.Lat, Lon: c.Lon})
		if d > s.cfg.SnapRadiusM {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && c.ID < best.ID) {
			best = c
			bestDist = d
		}
	}

	return best
}

// explorationTierOrder ставит неиспользованные тиры вперёд,
// внутри групп сохраняя порядок приоритета
func explorationTierOrder(usedTiers map[domain.FacilityTier]bool) []domain.FacilityTier {
	order := make([]domain.FacilityTier, 0, len(tierPriorityOrder))
	for _, t := range tierPriorityOrder {
		if !usedTiers[t] {
			order = append(order, t)
		}
	}
	for _, t := range tierPriorityOrder {
		if usedTiers[t] {
			order = append(order, t)
		}
	}
	return order
}

func groupByTier(candidates []domain.FacilityCandidate) map[domain.FacilityTier][]domain.FacilityCandidate {
	byTier := make(map[domain.FacilityTier][]domain.FacilityCandidate, 3)
	for _, c := range candidates {
		byTier[c.Tier] = append(byTier[c.Tier], c)
	}
	return byTier
}

func hybridTypeForTier(tier domain.FacilityTier) domain.HybridType {
	switch tier {
	case domain.FacilityTierPrimary:
		return domain.HybridTypePrimary
	case domain.FacilityTierSecondary:
		return domain.HybridTypeSecondary
	case domain.FacilityTierTertiary:
		return domain.HybridTypeTertiary
	}
	return ""
}
