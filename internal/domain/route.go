package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType - активность, для которой синтезируется маршрут
type ActivityType string

const (
	ActivityWalking ActivityType = "walking"
	ActivityRunning ActivityType = "running"
	ActivityCycling ActivityType = "cycling"
)

// Valid проверяет, что тип активности поддерживается
func (a ActivityType) Valid() bool {
	switch a {
	case ActivityWalking, ActivityRunning, ActivityCycling:
		return true
	}
	return false
}

// InfraMode - классификация сегмента инфраструктуры по типу использования
type InfraMode string

const (
	InfraModeCycling    InfraMode = "cycling"
	InfraModePedestrian InfraMode = "pedestrian"
	InfraModeShared     InfraMode = "shared"
)

// DataSource - доминирующий источник инфраструктуры в результате синтеза
type DataSource string

const (
	DataSourceCycling    DataSource = "cycling"
	DataSourcePedestrian DataSource = "pedestrian"
	DataSourceMixed      DataSource = "mixed"
	DataSourceNone       DataSource = "none"
)

// GeoPoint - географическая точка
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InfrastructureSegment - сырой сегмент уличной инфраструктуры из GIS-импорта.
// Путь неизменяемый, создаётся внешним процессом импорта.
type InfrastructureSegment struct {
	ID                 int64             `json:"id"`
	AreaID             string            `json:"area_id"`
	Name               *string           `json:"name,omitempty"`
	Path               []GeoPoint        `json:"path"`
	Mode               InfraMode         `json:"mode,omitempty"`
	LegacyActivityType string            `json:"legacy_activity_type,omitempty"`
	Tags               map[string]string `json:"tags,omitempty"`
	LengthKm           float64           `json:"length_km"`
}

// Midpoint возвращает среднюю вершину пути сегмента
func (s *InfrastructureSegment) Midpoint() GeoPoint {
	if len(s.Path) == 0 {
		return GeoPoint{}
	}
	return s.Path[len(s.Path)/2]
}

// DensityCluster - кластер плотности инфраструктуры.
// Живёт только внутри одного запуска синтеза, не персистится.
type DensityCluster struct {
	Center         GeoPoint `json:"center"`
	Density        int      `json:"density"`
	SegmentIndices []int    `json:"segment_indices"`
	CellToken      string   `json:"cell_token"`
}

// HybridType - состав фитнес-остановок гибридного маршрута
type HybridType string

const (
	HybridTypePrimary   HybridType = "primary"
	HybridTypeSecondary HybridType = "secondary"
	HybridTypeTertiary  HybridType = "tertiary"
	HybridTypeMixed     HybridType = "mixed"
)

// CuratedRoute - готовый закольцованный маршрут
type CuratedRoute struct {
	ID          uuid.UUID      `json:"id"`
	AreaID      string         `json:"area_id"`
	Name        string         `json:"name"`
	Activity    ActivityType   `json:"activity"`
	TierName    string         `json:"tier"`
	DistanceKm  float64        `json:"distance_km"`
	DurationMin int            `json:"duration_min"`
	Calories    int            `json:"calories"`
	Path        []GeoPoint     `json:"path"`
	Hybrid      bool           `json:"hybrid"`
	HybridType  HybridType     `json:"hybrid_type,omitempty"`
	Stops       []FacilityStop `json:"stops,omitempty"`
	DataSource  DataSource     `json:"data_source"`
	ClusterCell string         `json:"cluster_cell,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SynthesisSummary - статистика одного запуска синтеза
type SynthesisSummary struct {
	TotalInfraKm       float64    `json:"total_infra_km"`
	SegmentsProcessed  int        `json:"segments_processed"`
	CompatibleSegments int        `json:"compatible_segments"`
	ClustersFound      int        `json:"clusters_found"`
	ClustersUsed       int        `json:"clusters_used"`
	RoutesGenerated    int        `json:"routes_generated"`
	HybridRoutes       int        `json:"hybrid_routes"`
	DataSource         DataSource `json:"data_source"`
}

// SynthesisResult - итог синтеза для области.
// Пустой список маршрутов с DataSource=none - нормальный результат, не ошибка.
type SynthesisResult struct {
	AreaID   string           `json:"area_id"`
	Activity ActivityType     `json:"activity"`
	Hybrid   bool             `json:"hybrid"`
	Routes   []CuratedRoute   `json:"routes"`
	Summary  SynthesisSummary `json:"summary"`
}

// DirectionsRoute - ответ внешнего провайдера маршрутизации
type DirectionsRoute struct {
	Path            []GeoPoint `json:"path"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
}
