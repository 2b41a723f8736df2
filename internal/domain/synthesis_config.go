package domain

// TierConfig - дистанционный тир одной активности
type TierConfig struct {
	Name     string  `json:"name"`
	MinKm    float64 `json:"min_km"`
	MaxKm    float64 `json:"max_km"`
	RadiusKm float64 `json:"radius_km"`
}

// ActivityParams - параметры синтеза для одной активности
type ActivityParams struct {
	Tiers              []TierConfig `json:"tiers"`
	MaxHybridStops     int          `json:"max_hybrid_stops"`
	StopKmDivisor      float64      `json:"stop_km_divisor"`
	MinStairStepCount  int          `json:"min_stair_step_count"`
	ContinueStraight   bool         `json:"continue_straight"`
	SimplifyToleranceM float64      `json:"simplify_tolerance_m"`
	CaloriesPerKm      float64      `json:"calories_per_km"`
	SpeedKmh           float64      `json:"speed_kmh"`
}

// SynthesisConfig - полная конфигурация движка синтеза.
// Передаётся значением в каждый запуск, глобального состояния нет:
// параллельные запуски с разными конфигами не мешают друг другу.
type SynthesisConfig struct {
	Activities          map[ActivityType]ActivityParams `json:"activities"`
	SnapRadiusM         float64                         `json:"snap_radius_m"`
	LoopCloseToleranceM float64                         `json:"loop_close_tolerance_m"`
	MinRoutePoints      int                             `json:"min_route_points"`
	MinDistanceFactor   float64                         `json:"min_distance_factor"`
	MaxDistanceFactor   float64                         `json:"max_distance_factor"`
	MaxClusters         int                             `json:"max_clusters"`
	MinKMeansClusters   int                             `json:"min_kmeans_clusters"`
	MaxKMeansClusters   int                             `json:"max_kmeans_clusters"`
	SegmentsPerCluster  int                             `json:"segments_per_cluster"`
	MaxKMeansIterations int                             `json:"max_kmeans_iterations"`
	ConvergenceM        float64                         `json:"convergence_m"`
	RoutesPerArea       int                             `json:"routes_per_area"`
}

// Params возвращает параметры активности из конфига
func (c SynthesisConfig) Params(activity ActivityType) (ActivityParams, bool) {
	p, ok := c.Activities[activity]
	return p, ok
}

// DefaultSynthesisConfig возвращает конфигурацию по умолчанию.
// Допуски упрощения и пороги валидации подобраны эмпирически,
// поэтому остаются настраиваемыми, а не зашиты в алгоритм.
func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{
		Activities: map[ActivityType]ActivityParams{
			ActivityRunning: {
				Tiers: []TierConfig{
					{Name: "short", MinKm: 4, MaxKm: 7, RadiusKm: 1.0},
					{Name: "medium", MinKm: 8, MaxKm: 12, RadiusKm: 1.6},
					{Name: "long", MinKm: 12, MaxKm: 18, RadiusKm: 2.5},
				},
				MaxHybridStops:     2,
				StopKmDivisor:      5,
				MinStairStepCount:  50,
				ContinueStraight:   true,
				SimplifyToleranceM: 15,
				CaloriesPerKm:      62,
				SpeedKmh:           10,
			},
			ActivityWalking: {
				Tiers: []TierConfig{
					{Name: "short", MinKm: 2.5, MaxKm: 4.5, RadiusKm: 0.6},
					{Name: "medium", MinKm: 4, MaxKm: 7, RadiusKm: 1.0},
					{Name: "long", MinKm: 7, MaxKm: 11, RadiusKm: 1.6},
				},
				MaxHybridStops:     4,
				StopKmDivisor:      2,
				MinStairStepCount:  20,
				ContinueStraight:   false,
				SimplifyToleranceM: 8,
				CaloriesPerKm:      50,
				SpeedKmh:           5,
			},
			ActivityCycling: {
				Tiers: []TierConfig{
					{Name: "short", MinKm: 8, MaxKm: 14, RadiusKm: 2.0},
					{Name: "medium", MinKm: 13, MaxKm: 22, RadiusKm: 3.2},
					{Name: "long", MinKm: 20, MaxKm: 35, RadiusKm: 5.0},
				},
				MaxHybridStops:     2,
				StopKmDivisor:      5,
				MinStairStepCount:  80,
				ContinueStraight:   false,
				SimplifyToleranceM: 8,
				CaloriesPerKm:      25,
				SpeedKmh:           18,
			},
		},
		SnapRadiusM:         300,
		LoopCloseToleranceM: 100,
		MinRoutePoints:      50,
		MinDistanceFactor:   0.5,
		MaxDistanceFactor:   1.1,
		MaxClusters:         6,
		MinKMeansClusters:   3,
		MaxKMeansClusters:   8,
		SegmentsPerCluster:  10,
		MaxKMeansIterations: 20,
		ConvergenceM:        50,
		RoutesPerArea:       6,
	}
}
