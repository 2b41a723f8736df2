package domain

// FacilityTier - приоритет фитнес-объекта при подборе остановок.
// Меньшее значение = выше приоритет.
type FacilityTier int

const (
	FacilityTierPrimary   FacilityTier = 1 // уличные тренажёры, калистеника
	FacilityTierSecondary FacilityTier = 2 // лестницы с достаточным числом ступеней
	FacilityTierTertiary  FacilityTier = 3 // скамейки рядом с парком или площадью
)

// String возвращает строковое имя тира для логов и имён маршрутов
func (t FacilityTier) String() string {
	switch t {
	case FacilityTierPrimary:
		return "primary"
	case FacilityTierSecondary:
		return "secondary"
	case FacilityTierTertiary:
		return "tertiary"
	}
	return "unknown"
}

// Facility categories recognized by tier derivation
const (
	FacilityCategoryFitnessStation = "fitness_station"
	FacilityCategoryCalisthenics   = "calisthenics"
	FacilityCategoryOutdoorGym     = "outdoor_gym"
	FacilityCategoryStairs         = "stairs"
	FacilityCategoryBench          = "bench"
)

// FacilityCategories перечисляет категории, участвующие в классификации.
// Репозиторий отсекает по этому списку посторонние объекты ещё в SQL.
func FacilityCategories() []string {
	return []string{
		FacilityCategoryFitnessStation,
		FacilityCategoryCalisthenics,
		FacilityCategoryOutdoorGym,
		FacilityCategoryStairs,
		FacilityCategoryBench,
	}
}

// FacilityCandidate - точка-кандидат для фитнес-остановки
type FacilityCandidate struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Lat             float64      `json:"lat"`
	Lon             float64      `json:"lon"`
	Category        string       `json:"category"`
	StepCount       *int         `json:"step_count,omitempty"`
	NearParkOrPlaza bool         `json:"near_park_or_plaza"`
	Tier            FacilityTier `json:"tier"`
}

// DeriveFacilityTier определяет тир кандидата по категории.
// Лестницы проходят только при достаточном числе ступеней, скамейки -
// только рядом с парком или площадью. Второй результат false, если
// кандидат непригоден ни для одного тира.
func DeriveFacilityTier(category string, stepCount *int, nearParkOrPlaza bool, minStairSteps int) (FacilityTier, bool) {
	switch category {
	case FacilityCategoryFitnessStation, FacilityCategoryCalisthenics, FacilityCategoryOutdoorGym:
		return FacilityTierPrimary, true
	case FacilityCategoryStairs:
		if stepCount != nil && *stepCount >= minStairSteps {
			return FacilityTierSecondary, true
		}
		return 0, false
	case FacilityCategoryBench:
		if nearParkOrPlaza {
			return FacilityTierTertiary, true
		}
		return 0, false
	}
	return 0, false
}

// FacilityStopType - роль остановки в маршруте
type FacilityStopType string

const (
	// StopTypePitStop - дискретная пауза в кардио-режиме (бег, велосипед)
	StopTypePitStop FacilityStopType = "pit_stop"
	// StopTypeJourney - остановка, встроенная в прогулочный маршрут
	StopTypeJourney FacilityStopType = "journey"
)

// FacilityStop - фитнес-объект, привязанный к конкретной вершине маршрута
type FacilityStop struct {
	FacilityID    int64            `json:"facility_id"`
	Name          string           `json:"name"`
	Lat           float64          `json:"lat"`
	Lon           float64          `json:"lon"`
	Tier          FacilityTier     `json:"tier"`
	WaypointIndex int              `json:"waypoint_index"`
	StopType      FacilityStopType `json:"stop_type"`
}
