package repository

import (
	"context"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// SegmentRepository определяет доступ к сырым сегментам инфраструктуры
type SegmentRepository interface {
	// FetchByArea возвращает все сегменты области.
	// Пустая область - это пустой слайс и nil, а не ошибка.
	FetchByArea(ctx context.Context, areaID string) ([]domain.InfrastructureSegment, error)
}
