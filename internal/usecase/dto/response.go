package dto

import (
	"time"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// SynthesisJobResponse - ответ на постановку задания синтеза в очередь
type SynthesisJobResponse struct {
	JobID    string `json:"job_id"`
	AreaID   string `json:"area_id"`
	Activity string `json:"activity"`
	Status   string `json:"status"`
}

// RouteListItem - маршрут в списке, без полной геометрии:
// path отдаёт только детальный эндпоинт
type RouteListItem struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Activity    domain.ActivityType   `json:"activity"`
	Tier        string                `json:"tier"`
	DistanceKm  float64               `json:"distance_km"`
	DurationMin int                   `json:"duration_min"`
	Calories    int                   `json:"calories"`
	Hybrid      bool                  `json:"hybrid"`
	HybridType  domain.HybridType     `json:"hybrid_type,omitempty"`
	Stops       []domain.FacilityStop `json:"stops,omitempty"`
	DataSource  domain.DataSource     `json:"data_source"`
	CreatedAt   time.Time             `json:"created_at"`
}

// ListRoutesResponse - список маршрутов области
type ListRoutesResponse struct {
	Routes []RouteListItem `json:"routes"`
	Total  int             `json:"total"`
}

// ConvertRouteListItem конвертирует domain-маршрут в элемент списка
func ConvertRouteListItem(r domain.CuratedRoute) RouteListItem {
	return RouteListItem{
		ID:          r.ID.String(),
		Name:        r.Name,
		Activity:    r.Activity,
		Tier:        r.TierName,
		DistanceKm:  r.DistanceKm,
		DurationMin: r.DurationMin,
		Calories:    r.Calories,
		Hybrid:      r.Hybrid,
		HybridType:  r.HybridType,
		Stops:       r.Stops,
		DataSource:  r.DataSource,
		CreatedAt:   r.CreatedAt,
	}
}
