package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
)

func segment(id int64, mode domain.InfraMode, lengthKm float64) domain.InfrastructureSegment {
	return domain.InfrastructureSegment{
		ID:   id,
		Mode: mode,
		Path: []domain.GeoPoint{
			{Lat: 41.3851, Lon: 2.1734},
			{Lat: 41.3900, Lon: 2.1800},
		},
		LengthKm: lengthKm,
	}
}

func TestSegmentFilter_Filter(t *testing.T) {
	filter := usecase.NewSegmentFilter(zap.NewNop())

	t.Run("running keeps pedestrian and shared, drops cycling", func(t *testing.T) {
		segments := []domain.InfrastructureSegment{
			segment(1, domain.InfraModePedestrian, 1.0),
			segment(2, domain.InfraModeCycling, 2.0),
			segment(3, domain.InfraModeShared, 0.5),
		}

		result := filter.Filter(segments, domain.ActivityRunning)

		assert.Len(t, result.Segments, 2)
		assert.Equal(t, int64(1), result.Segments[0].ID)
		assert.Equal(t, int64(3), result.Segments[1].ID)
		assert.Equal(t, domain.DataSourcePedestrian, result.DataSource)
	})

	t.Run("cycling keeps everything", func(t *testing.T) {
		segments := []domain.InfrastructureSegment{
			segment(1, domain.InfraModePedestrian, 1.0),
			segment(2, domain.InfraModeCycling, 2.0),
			segment(3, domain.InfraModeShared, 0.5),
		}

		result := filter.Filter(segments, domain.ActivityCycling)

		assert.Len(t, result.Segments, 3)
		assert.Equal(t, domain.DataSourceMixed, result.DataSource)
	})

	t.Run("total km sums all input segments, not only kept", func(t *testing.T) {
		segments := []domain.InfrastructureSegment{
			segment(1, domain.InfraModePedestrian, 1.5),
			segment(2, domain.InfraModeCycling, 2.5),
		}

		result := filter.Filter(segments, domain.ActivityWalking)

		assert.Len(t, result.Segments, 1)
		assert.InDelta(t, 4.0, result.TotalKm, 0.001)
	})

	t.Run("missing length computed from path", func(t *testing.T) {
		seg := segment(1, domain.InfraModePedestrian, 0)
		result := filter.Filter([]domain.InfrastructureSegment{seg}, domain.ActivityWalking)

		assert.Len(t, result.Segments, 1)
		assert.Greater(t, result.TotalKm, 0.0)
		assert.Greater(t, result.Segments[0].LengthKm, 0.0)
	})

	t.Run("degenerate path dropped", func(t *testing.T) {
		seg := segment(1, domain.InfraModePedestrian, 1.0)
		seg.Path = seg.Path[:1]

		result := filter.Filter([]domain.InfrastructureSegment{seg}, domain.ActivityRunning)

		assert.Empty(t, result.Segments)
		assert.Equal(t, domain.DataSourceNone, result.DataSource)
	})

	t.Run("legacy activity type resolves missing mode", func(t *testing.T) {
		seg := segment(1, "", 1.0)
		seg.LegacyActivityType = "cycling"

		result := filter.Filter([]domain.InfrastructureSegment{seg}, domain.ActivityRunning)
		assert.Empty(t, result.Segments)

		result = filter.Filter([]domain.InfrastructureSegment{seg}, domain.ActivityCycling)
		assert.Len(t, result.Segments, 1)
		assert.Equal(t, domain.InfraModeCycling, result.Segments[0].Mode)
	})

	t.Run("legacy tag fallback resolves missing mode", func(t *testing.T) {
		seg := segment(1, "", 1.0)
		seg.Tags = map[string]string{"legacy_activity_type": "running"}

		result := filter.Filter([]domain.InfrastructureSegment{seg}, domain.ActivityRunning)

		assert.Len(t, result.Segments, 1)
		assert.Equal(t, domain.InfraModePedestrian, result.Segments[0].Mode)
	})

	t.Run("unknown mode falls back to shared", func(t *testing.T) {
		seg := segment(1, "", 1.0)

		result := filter.Filter([]domain.InfrastructureSegment{seg}, domain.ActivityRunning)

		assert.Len(t, result.Segments, 1)
		assert.Equal(t, domain.InfraModeShared, result.Segments[0].Mode)
	})

	t.Run("empty input gives none data source", func(t *testing.T) {
		result := filter.Filter(nil, domain.ActivityRunning)

		assert.Empty(t, result.Segments)
		assert.Equal(t, domain.DataSourceNone, result.DataSource)
		assert.Zero(t, result.TotalKm)
	})
}

func TestSegmentFilter_DataSourceLabels(t *testing.T) {
	filter := usecase.NewSegmentFilter(zap.NewNop())

	t.Run("shared only labeled by primary mode of activity", func(t *testing.T) {
		segments := []domain.InfrastructureSegment{segment(1, domain.InfraModeShared, 1.0)}

		result := filter.Filter(segments, domain.ActivityRunning)
		assert.Equal(t, domain.DataSourcePedestrian, result.DataSource)

		result = filter.Filter(segments, domain.ActivityCycling)
		assert.Equal(t, domain.DataSourceCycling, result.DataSource)
	})

	t.Run("cycling only for cycling activity", func(t *testing.T) {
		segments := []domain.InfrastructureSegment{segment(1, domain.InfraModeCycling, 1.0)}

		result := filter.Filter(segments, domain.ActivityCycling)
		assert.Equal(t, domain.DataSourceCycling, result.DataSource)
	})
}
