package repository

import (
	"context"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// DirectionsRepository определяет методы внешнего провайдера маршрутизации
type DirectionsRepository interface {
	// Route строит реальный маршрут через упорядоченный список вейпоинтов.
	// Ошибка провайдера означает отказ одного кандидата, не всего батча.
	Route(
		ctx context.Context,
		waypoints []domain.GeoPoint,
		activity domain.ActivityType,
		continueStraight bool,
	) (*domain.DirectionsRoute, error)
}
