package domain

import "github.com/google/uuid"

// Stream names (должны совпадать с backend_fitness)
const (
	StreamRoutesSynthesize = "stream:routes:synthesize"
	StreamRoutesProgress   = "stream:routes:progress"
	StreamRoutesDone       = "stream:routes:done"
)

// SynthesisJobEvent - входящее задание на синтез маршрутов области
type SynthesisJobEvent struct {
	JobID     uuid.UUID    `json:"job_id"`
	AreaID    string       `json:"area_id"`
	Activity  ActivityType `json:"activity"`
	Hybrid    bool         `json:"hybrid"`
	MaxRoutes int          `json:"max_routes,omitempty"`
}

// SynthesisProgressEvent - событие прогресса, привязанное к заданию
type SynthesisProgressEvent struct {
	JobID   uuid.UUID     `json:"job_id"`
	AreaID  string        `json:"area_id"`
	Phase   ProgressPhase `json:"phase"`
	Detail  string        `json:"detail"`
	Percent int           `json:"percent"`
}

// SynthesisDoneEvent - результат выполнения задания
type SynthesisDoneEvent struct {
	JobID      uuid.UUID         `json:"job_id"`
	AreaID     string            `json:"area_id"`
	RouteCount int               `json:"route_count"`
	Summary    *SynthesisSummary `json:"summary,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID     string
	Stream string
	Data   map[string]interface{}
}
