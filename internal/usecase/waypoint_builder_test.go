package usecase_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
)

func TestBuildDiamondWaypoints(t *testing.T) {
	center := domain.GeoPoint{Lat: 41.3851, Lon: 2.1734}

	t.Run("closed diamond of five points", func(t *testing.T) {
		waypoints := usecase.BuildDiamondWaypoints(center, 1.0, 0, 0)

		require.Len(t, waypoints, 5)
		assert.Equal(t, waypoints[0], waypoints[4])
	})

	t.Run("vertices lie on the radius", func(t *testing.T) {
		const radiusKm = 1.6

		waypoints := usecase.BuildDiamondWaypoints(center, radiusKm, 2, 1)

		for i := 0; i < 4; i++ {
			assert.InDelta(t, radiusKm, geo.DistanceKm(center, waypoints[i]), 0.001)
		}
	})

	t.Run("base bearings without rotation", func(t *testing.T) {
		waypoints := usecase.BuildDiamondWaypoints(center, 1.0, 0, 0)

		for i, want := range []float64{0, 90, 180, 270} {
			assert.InDelta(t, want, geo.Bearing(center, waypoints[i]), 0.5)
		}
	})

	t.Run("rotation shifts by cluster and tier index", func(t *testing.T) {
		// кластер 3 и тир 2: поворот 3*15 + 2*30 = 105 градусов
		waypoints := usecase.BuildDiamondWaypoints(center, 1.0, 3, 2)

		for i, base := range []float64{0, 90, 180, 270} {
			want := math.Mod(base+105, 360)
			assert.InDelta(t, want, geo.Bearing(center, waypoints[i]), 0.5)
		}
	})

	t.Run("different clusters give different shapes", func(t *testing.T) {
		first := usecase.BuildDiamondWaypoints(center, 1.0, 0, 0)
		second := usecase.BuildDiamondWaypoints(center, 1.0, 1, 0)

		assert.NotEqual(t, first[0], second[0])
	})
}
