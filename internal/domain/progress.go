package domain

// ProgressPhase - фаза конвейера синтеза
type ProgressPhase string

const (
	PhaseFetch   ProgressPhase = "fetch"
	PhaseFilter  ProgressPhase = "filter"
	PhaseCluster ProgressPhase = "cluster"
	PhaseStitch  ProgressPhase = "stitch"
	PhaseSave    ProgressPhase = "save"
	PhaseDone    ProgressPhase = "done"
)

// ProgressEvent - событие прогресса синтеза
type ProgressEvent struct {
	Phase   ProgressPhase `json:"phase"`
	Detail  string        `json:"detail"`
	Percent int           `json:"percent"`
}

// ProgressSink принимает события прогресса. Реализация не должна
// блокировать конвейер надолго: движок зовёт Publish синхронно.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// NopSink - заглушка для вызовов, которым прогресс не нужен
type NopSink struct{}

// Publish ничего не делает
func (NopSink) Publish(ProgressEvent) {}
