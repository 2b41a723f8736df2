package usecase

import (
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/gis"
)

// activityCompatibility - какие режимы инфраструктуры доступны активности.
// Бег и ходьба никогда не используют чисто велосипедную инфраструктуру.
var activityCompatibility = map[domain.ActivityType]map[domain.InfraMode]bool{
	domain.ActivityCycling: {
		domain.InfraModeCycling:    true,
		domain.InfraModeShared:     true,
		domain.InfraModePedestrian: true,
	},
	domain.ActivityRunning: {
		domain.InfraModePedestrian: true,
		domain.InfraModeShared:     true,
	},
	domain.ActivityWalking: {
		domain.InfraModePedestrian: true,
		domain.InfraModeShared:     true,
	},
}

// SegmentFilter отбирает сегменты, пригодные для запрошенной активности
type SegmentFilter struct {
	logger *zap.Logger
}

func NewSegmentFilter(logger *zap.Logger) *SegmentFilter {
	return &SegmentFilter{logger: logger}
}

// FilterResult - результат фильтрации сегментов области
type FilterResult struct {
	Segments   []domain.InfrastructureSegment
	DataSource domain.DataSource
	TotalKm    float64
}

// Filter классифицирует сегменты по эффективному режиму и оставляет
// совместимые. Пустой результат - нормальное терминальное состояние.
func (f *SegmentFilter) Filter(
	segments []domain.InfrastructureSegment,
	activity domain.ActivityType,
) FilterResult {
	allowed := activityCompatibility[activity]

	result := FilterResult{
		Segments: make([]domain.InfrastructureSegment, 0, len(segments)),
	}

	hasCycling := false
	hasPedestrian := false

	for _, seg := range segments {
		length := seg.LengthKm
		if length == 0 {
			length = geo.PathLengthKm(seg.Path)
		}
		result.TotalKm += length

		if len(seg.Path) < 2 {
			continue
		}

		mode := effectiveMode(&seg)
		if !allowed[mode] {
			continue
		}

		switch mode {
		case domain.InfraModeCycling:
			hasCycling = true
		case domain.InfraModePedestrian:
			hasPedestrian = true
		}

		seg.Mode = mode
		seg.LengthKm = length
		result.Segments = append(result.Segments, seg)
	}

	result.DataSource = dataSourceLabel(activity, len(result.Segments), hasCycling, hasPedestrian)

	f.logger.Debug("Segments filtered",
		zap.String("activity", string(activity)),
		zap.Int("total", len(segments)),
		zap.Int("compatible", len(result.Segments)),
		zap.String("data_source", string(result.DataSource)))

	return result
}

// effectiveMode - явный режим сегмента либо вывод из legacy-тега активности:
// cycling -> cycling, running/walking -> pedestrian, всё прочее -> shared
func effectiveMode(seg *domain.InfrastructureSegment) domain.InfraMode {
	switch seg.Mode {
	case domain.InfraModeCycling, domain.InfraModePedestrian, domain.InfraModeShared:
		return seg.Mode
	}

	legacy := seg.LegacyActivityType
	if legacy == "" {
		if v := gis.PickString(seg.Tags, "legacy_activity_type", "activity_type", "activity"); v != nil {
			legacy = *v
		}
	}

	switch domain.ActivityType(legacy) {
	case domain.ActivityCycling:
		return domain.InfraModeCycling
	case domain.ActivityRunning, domain.ActivityWalking:
		return domain.InfraModePedestrian
	}
	return domain.InfraModeShared
}

// dataSourceLabel - грубая метка происхождения данных для телеметрии
func dataSourceLabel(activity domain.ActivityType, kept int, hasCycling, hasPedestrian bool) domain.DataSource {
	if kept == 0 {
		return domain.DataSourceNone
	}

	switch {
	case hasCycling && hasPedestrian:
		return domain.DataSourceMixed
	case hasCycling:
		return domain.DataSourceCycling
	case hasPedestrian:
		return domain.DataSourcePedestrian
	}

	// остались только shared-сегменты: метка по основному режиму активности
	if activity == domain.ActivityCycling {
		return domain.DataSourceCycling
	}
	return domain.DataSourcePedestrian
}
