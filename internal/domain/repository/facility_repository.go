package repository

import (
	"context"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// FacilityRepository определяет доступ к фитнес-объектам области
type FacilityRepository interface {
	// FetchByArea возвращает кандидатов без назначенного тира:
	// тир выводится в домене по параметрам активности
	FetchByArea(ctx context.Context, areaID string) ([]domain.FacilityCandidate, error)
}
