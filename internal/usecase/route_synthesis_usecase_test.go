package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	pkgerrors "github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/geo"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
)

// MockSegmentRepository is a mock of SegmentRepository
type MockSegmentRepository struct {
	mock.Mock
}

func (m *MockSegmentRepository) FetchByArea(ctx context.Context, areaID string) ([]domain.InfrastructureSegment, error) {
	args := m.Called(ctx, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InfrastructureSegment), args.Error(1)
}

// MockFacilityRepository is a mock of FacilityRepository
type MockFacilityRepository struct {
	mock.Mock
}

func (m *MockFacilityRepository) FetchByArea(ctx context.Context, areaID string) ([]domain.FacilityCandidate, error) {
	args := m.Called(ctx, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FacilityCandidate), args.Error(1)
}

// MockDirectionsRepository is a mock of DirectionsRepository
type MockDirectionsRepository struct {
	mock.Mock
}

func (m *MockDirectionsRepository) Route(ctx context.Context, waypoints []domain.GeoPoint, activity domain.ActivityType, continueStraight bool) (*domain.DirectionsRoute, error) {
	args := m.Called(ctx, waypoints, activity, continueStraight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DirectionsRoute), args.Error(1)
}

// MockRouteRepository is a mock of RouteRepository
type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) ReplaceForArea(ctx context.Context, areaID string, routes []domain.CuratedRoute) error {
	args := m.Called(ctx, areaID, routes)
	return args.Error(0)
}

func (m *MockRouteRepository) GetByArea(ctx context.Context, areaID string, activity *domain.ActivityType) ([]domain.CuratedRoute, error) {
	args := m.Called(ctx, areaID, activity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CuratedRoute), args.Error(1)
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CuratedRoute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CuratedRoute), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetRoutes(ctx context.Context, areaID string) ([]domain.CuratedRoute, error) {
	args := m.Called(ctx, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CuratedRoute), args.Error(1)
}

func (m *MockCacheRepository) SetRoutes(ctx context.Context, areaID string, routes []domain.CuratedRoute, ttl time.Duration) error {
	args := m.Called(ctx, areaID, routes, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) InvalidateArea(ctx context.Context, areaID string) error {
	args := m.Called(ctx, areaID)
	return args.Error(0)
}

func (m *MockCacheRepository) GetSummary(ctx context.Context, areaID string) (*domain.SynthesisSummary, error) {
	args := m.Called(ctx, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SynthesisSummary), args.Error(1)
}

func (m *MockCacheRepository) SetSummary(ctx context.Context, areaID string, summary *domain.SynthesisSummary, ttl time.Duration) error {
	args := m.Called(ctx, areaID, summary, ttl)
	return args.Error(0)
}

// countingWaiter считает вызовы лимитера вместо реального ожидания
type countingWaiter struct {
	calls int
	err   error
}

func (w *countingWaiter) Wait(ctx context.Context) error {
	w.calls++
	return w.err
}

// recordingSink собирает события прогресса для проверки порядка фаз
type recordingSink struct {
	events []domain.ProgressEvent
}

func (s *recordingSink) Publish(event domain.ProgressEvent) {
	s.events = append(s.events, event)
}

// jaggedLoop - замкнутая зубчатая петля, переживающая упрощение:
// зубья ~20 метров заметно больше допуска Дугласа-Пекера
func jaggedLoop(count int) []domain.GeoPoint {
	path := make([]domain.GeoPoint, 0, count+1)
	for i := 0; i < count; i++ {
		radius := 1.0
		if i%2 == 1 {
			radius = 1.02
		}
		bearing := float64(i) * 360.0 / float64(count)
		path = append(path, geo.Destination(assembleCenter, bearing, radius))
	}
	return append(path, path[0])
}

// threeClusterSegments - три плотные группы: 4, 3 и 3 сегмента
func threeClusterSegments() []domain.InfrastructureSegment {
	segments := tightGroup(41.38, 2.0, 4)
	segments = append(segments, tightGroup(41.38, 2.5, 3)...)
	segments = append(segments, tightGroup(41.38, 3.0, 3)...)
	return segments
}

type synthesisMocks struct {
	segments   *MockSegmentRepository
	facilities *MockFacilityRepository
	directions *MockDirectionsRepository
	routes     *MockRouteRepository
	cache      *MockCacheRepository
	limiter    *countingWaiter
}

func newSynthesisUseCase() (*usecase.RouteSynthesisUseCase, *synthesisMocks) {
	m := &synthesisMocks{
		segments:   &MockSegmentRepository{},
		facilities: &MockFacilityRepository{},
		directions: &MockDirectionsRepository{},
		routes:     &MockRouteRepository{},
		cache:      &MockCacheRepository{},
		limiter:    &countingWaiter{},
	}
	uc := usecase.NewRouteSynthesisUseCase(
		m.segments, m.facilities, m.directions, m.routes, m.cache,
		m.limiter, domain.DefaultSynthesisConfig(), time.Hour, zap.NewNop(),
	)
	return uc, m
}

func TestRouteSynthesisUseCase_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline for walking area", func(t *testing.T) {
		uc, m := newSynthesisUseCase()
		sink := &recordingSink{}

		m.segments.On("FetchByArea", ctx, "barcelona").Return(threeClusterSegments(), nil)
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(&domain.DirectionsRoute{Path: jaggedLoop(120), DistanceMeters: 4000, DurationSeconds: 2880}, nil)
		m.routes.On("ReplaceForArea", ctx, "barcelona", mock.MatchedBy(func(routes []domain.CuratedRoute) bool {
			return len(routes) == 6
		})).Return(nil)
		m.cache.On("InvalidateArea", ctx, "barcelona").Return(nil)
		m.cache.On("SetRoutes", ctx, "barcelona", mock.Anything, time.Hour).Return(nil)
		m.cache.On("SetSummary", ctx, "barcelona", mock.Anything, time.Hour).Return(nil)

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking"}, sink)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.Routes, 6)

		assert.Equal(t, 10, result.Summary.SegmentsProcessed)
		assert.Equal(t, 10, result.Summary.CompatibleSegments)
		assert.Equal(t, 3, result.Summary.ClustersFound)
		assert.Equal(t, 3, result.Summary.ClustersUsed)
		assert.Equal(t, 6, result.Summary.RoutesGenerated)
		assert.Equal(t, 0, result.Summary.HybridRoutes)
		assert.Equal(t, domain.DataSourcePedestrian, result.Summary.DataSource)

		// ровно один Wait лимитера на каждый вызов провайдера
		assert.Equal(t, 6, m.limiter.calls)
		m.directions.AssertNumberOfCalls(t, "Route", 6)

		m.facilities.AssertNotCalled(t, "FetchByArea", mock.Anything, mock.Anything)
		m.routes.AssertExpectations(t)
		m.cache.AssertExpectations(t)
	})

	t.Run("progress phases ordered and monotonic", func(t *testing.T) {
		uc, m := newSynthesisUseCase()
		sink := &recordingSink{}

		m.segments.On("FetchByArea", ctx, "barcelona").Return(threeClusterSegments(), nil)
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(&domain.DirectionsRoute{Path: jaggedLoop(120), DistanceMeters: 4000}, nil)
		m.routes.On("ReplaceForArea", ctx, "barcelona", mock.Anything).Return(nil)
		m.cache.On("InvalidateArea", ctx, "barcelona").Return(nil)
		m.cache.On("SetRoutes", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("SetSummary", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking"}, sink)
		require.NoError(t, err)

		require.NotEmpty(t, sink.events)
		assert.Equal(t, domain.PhaseFetch, sink.events[0].Phase)
		assert.Equal(t, domain.PhaseDone, sink.events[len(sink.events)-1].Phase)
		assert.Equal(t, 100, sink.events[len(sink.events)-1].Percent)

		phaseRank := map[domain.ProgressPhase]int{
			domain.PhaseFetch:   0,
			domain.PhaseFilter:  1,
			domain.PhaseCluster: 2,
			domain.PhaseStitch:  3,
			domain.PhaseSave:    4,
			domain.PhaseDone:    5,
		}
		for i := 1; i < len(sink.events); i++ {
			prev, cur := sink.events[i-1], sink.events[i]
			assert.GreaterOrEqual(t, phaseRank[cur.Phase], phaseRank[prev.Phase], "phase order at %d", i)
			assert.GreaterOrEqual(t, cur.Percent, prev.Percent, "percent at %d", i)
		}
	})

	t.Run("no compatible infrastructure ends without saving", func(t *testing.T) {
		uc, m := newSynthesisUseCase()
		sink := &recordingSink{}

		cyclingOnly := []domain.InfrastructureSegment{
			segment(1, domain.InfraModeCycling, 2.0),
			segment(2, domain.InfraModeCycling, 3.0),
		}
		m.segments.On("FetchByArea", ctx, "barcelona").Return(cyclingOnly, nil)

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "running"}, sink)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Empty(t, result.Routes)
		assert.Equal(t, 2, result.Summary.SegmentsProcessed)
		assert.Equal(t, 0, result.Summary.CompatibleSegments)
		assert.Equal(t, domain.DataSourceNone, result.Summary.DataSource)

		assert.Equal(t, domain.PhaseDone, sink.events[len(sink.events)-1].Phase)
		assert.Equal(t, 100, sink.events[len(sink.events)-1].Percent)

		assert.Zero(t, m.limiter.calls)
		m.directions.AssertNotCalled(t, "Route", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.routes.AssertNotCalled(t, "ReplaceForArea", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure skips candidate, batch degrades", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		m.segments.On("FetchByArea", ctx, "barcelona").Return(threeClusterSegments(), nil)
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(nil, errors.New("upstream timeout")).Once()
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(&domain.DirectionsRoute{Path: jaggedLoop(120), DistanceMeters: 4000}, nil)
		m.routes.On("ReplaceForArea", ctx, "barcelona", mock.Anything).Return(nil)
		m.cache.On("InvalidateArea", ctx, "barcelona").Return(nil)
		m.cache.On("SetRoutes", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("SetSummary", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking", MaxRoutes: 2}, nil)

		require.NoError(t, err)
		assert.Len(t, result.Routes, 2)

		// неудачная попытка тоже проходит через лимитер
		assert.Equal(t, 3, m.limiter.calls)
		m.directions.AssertNumberOfCalls(t, "Route", 3)
	})

	t.Run("max routes caps the batch", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		m.segments.On("FetchByArea", ctx, "barcelona").Return(threeClusterSegments(), nil)
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(&domain.DirectionsRoute{Path: jaggedLoop(120), DistanceMeters: 4000}, nil)
		m.routes.On("ReplaceForArea", ctx, "barcelona", mock.MatchedBy(func(routes []domain.CuratedRoute) bool {
			return len(routes) == 2
		})).Return(nil)
		m.cache.On("InvalidateArea", ctx, "barcelona").Return(nil)
		m.cache.On("SetRoutes", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("SetSummary", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking", MaxRoutes: 2}, nil)

		require.NoError(t, err)
		assert.Len(t, result.Routes, 2)
		assert.Equal(t, 2, m.limiter.calls)
		m.routes.AssertExpectations(t)
	})

	t.Run("hybrid walking snaps facility near first cluster", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		segments := threeClusterSegments()
		// центроид плотнейшей группы и вейпоинт короткого тира без поворота
		cluster0 := domain.GeoPoint{Lat: 41.3803, Lon: 2.0003}
		wp1 := geo.Destination(cluster0, 90, 0.6)

		m.segments.On("FetchByArea", ctx, "barcelona").Return(segments, nil)
		m.facilities.On("FetchByArea", ctx, "barcelona").Return([]domain.FacilityCandidate{
			{ID: 7, Name: "Street Workout Park", Lat: wp1.Lat, Lon: wp1.Lon, Category: domain.FacilityCategoryCalisthenics},
		}, nil)
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(&domain.DirectionsRoute{Path: jaggedLoop(120), DistanceMeters: 4000}, nil)
		m.routes.On("ReplaceForArea", ctx, "barcelona", mock.Anything).Return(nil)
		m.cache.On("InvalidateArea", ctx, "barcelona").Return(nil)
		m.cache.On("SetRoutes", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("SetSummary", ctx, "barcelona", mock.Anything, mock.Anything).Return(nil)

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking", Hybrid: true}, nil)

		require.NoError(t, err)
		require.Len(t, result.Routes, 6)
		assert.Equal(t, 1, result.Summary.HybridRoutes)

		hybrid := result.Routes[0]
		assert.True(t, hybrid.Hybrid)
		assert.Equal(t, "Hybrid Walk — Calisthenics", hybrid.Name)
		require.Len(t, hybrid.Stops, 1)
		assert.Equal(t, int64(7), hybrid.Stops[0].FacilityID)
		assert.Equal(t, domain.StopTypeJourney, hybrid.Stops[0].StopType)

		m.facilities.AssertExpectations(t)
	})

	t.Run("invalid activity rejected before any fetch", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "swimming"}, nil)

		assert.ErrorIs(t, err, pkgerrors.ErrInvalidActivity)
		assert.Nil(t, result)
		m.segments.AssertNotCalled(t, "FetchByArea", mock.Anything, mock.Anything)
	})

	t.Run("segment source failure is fatal", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		m.segments.On("FetchByArea", ctx, "barcelona").Return(nil, errors.New("connection refused"))

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "running"}, nil)

		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("persist failure is fatal", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		m.segments.On("FetchByArea", ctx, "barcelona").Return(threeClusterSegments(), nil)
		m.directions.On("Route", ctx, mock.Anything, domain.ActivityWalking, false).
			Return(&domain.DirectionsRoute{Path: jaggedLoop(120), DistanceMeters: 4000}, nil)
		m.routes.On("ReplaceForArea", ctx, "barcelona", mock.Anything).Return(errors.New("deadlock"))

		result, err := uc.Synthesize(ctx, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking"}, nil)

		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("cancelled context stops before provider calls", func(t *testing.T) {
		uc, m := newSynthesisUseCase()

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		m.segments.On("FetchByArea", cancelled, "barcelona").Return(threeClusterSegments(), nil)

		result, err := uc.Synthesize(cancelled, dto.SynthesizeRequest{AreaID: "barcelona", Activity: "walking"}, nil)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, result)
		assert.Zero(t, m.limiter.calls)
		m.directions.AssertNotCalled(t, "Route", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
