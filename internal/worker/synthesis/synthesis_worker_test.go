package synthesis_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
	"github.com/officeappout/out-run-app-sub002/internal/worker/synthesis"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockSynthesisRunner is a mock of the synthesis engine
type MockSynthesisRunner struct {
	mock.Mock
}

func (m *MockSynthesisRunner) Synthesize(ctx context.Context, req dto.SynthesizeRequest, sink domain.ProgressSink) (*domain.SynthesisResult, error) {
	args := m.Called(ctx, req, sink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SynthesisResult), args.Error(1)
}

// jobMessage packs a SynthesisJobEvent as a stream message
func jobMessage(t *testing.T, id string, job *domain.SynthesisJobEvent) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("failed to marshal job: %v", err)
	}
	return domain.StreamMessage{
		ID:     id,
		Stream: domain.StreamRoutesSynthesize,
		Data: map[string]interface{}{
			"data": string(data),
		},
	}
}

// TestRouteSynthesisWorker_Name tests the worker name
func TestRouteSynthesisWorker_Name(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 3, logger)

	assert.Equal(t, "route-synthesis", w.Name())
}

// TestRouteSynthesisWorker_Stop tests graceful stop
func TestRouteSynthesisWorker_Stop(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 3, logger)

	// Stop should not error even if not started
	err := w.Stop()
	assert.NoError(t, err)

	// Calling stop multiple times should be safe
	err = w.Stop()
	assert.NoError(t, err)
}

// TestRouteSynthesisWorker_ContextCancellation tests worker stops on context cancellation
func TestRouteSynthesisWorker_ContextCancellation(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 3, logger)

	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamRoutesSynthesize, "test-group").
		Return(nil)

	// Empty queue all the way
	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
		assert.Equal(t, context.Canceled, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop on context cancellation")
	}

	mockStream.AssertExpectations(t)
}

// TestRouteSynthesisWorker_JobProcessing tests a successful job end to end:
// progress goes to the progress stream, the result to the done stream, then ACK
func TestRouteSynthesisWorker_JobProcessing(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 3, logger)

	jobID := uuid.New()
	job := &domain.SynthesisJobEvent{
		JobID:     jobID,
		AreaID:    "barcelona",
		Activity:  domain.ActivityRunning,
		Hybrid:    false,
		MaxRoutes: 2,
	}
	msg := jobMessage(t, "1234567890-0", job)

	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamRoutesSynthesize, "test-group").
		Return(nil)

	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{msg}, nil).Once()
	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{}, nil)

	result := &domain.SynthesisResult{
		AreaID:   "barcelona",
		Activity: domain.ActivityRunning,
		Routes:   make([]domain.CuratedRoute, 2),
		Summary: domain.SynthesisSummary{
			RoutesGenerated: 2,
			DataSource:      domain.DataSourcePedestrian,
		},
	}

	// The engine publishes one progress event through the sink
	mockUC.On("Synthesize", mock.Anything, mock.MatchedBy(func(req dto.SynthesizeRequest) bool {
		return req.AreaID == "barcelona" && req.Activity == "running" && req.MaxRoutes == 2
	}), mock.Anything).
		Run(func(args mock.Arguments) {
			sink := args.Get(2).(domain.ProgressSink)
			sink.Publish(domain.ProgressEvent{Phase: domain.PhaseFetch, Detail: "loading segments", Percent: 5})
		}).
		Return(result, nil).Once()

	mockStream.On("PublishToStream", mock.Anything, domain.StreamRoutesProgress, mock.MatchedBy(func(e domain.SynthesisProgressEvent) bool {
		return e.JobID == jobID && e.AreaID == "barcelona" && e.Phase == domain.PhaseFetch
	})).Return(nil).Once()

	mockStream.On("PublishToStream", mock.Anything, domain.StreamRoutesDone, mock.MatchedBy(func(e domain.SynthesisDoneEvent) bool {
		return e.JobID == jobID && e.RouteCount == 2 && e.Error == "" &&
			e.Summary != nil && e.Summary.RoutesGenerated == 2
	})).Return(nil).Once()

	mockStream.On("AckMessage", mock.Anything, domain.StreamRoutesSynthesize, "test-group", "1234567890-0").
		Return(nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop in time")
	}

	mockStream.AssertExpectations(t)
	mockUC.AssertExpectations(t)
}

// TestRouteSynthesisWorker_PoisonMessage tests that unparseable messages
// are ACKed and skipped without reaching the engine
func TestRouteSynthesisWorker_PoisonMessage(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 3, logger)

	poison := domain.StreamMessage{
		ID:     "666-0",
		Stream: domain.StreamRoutesSynthesize,
		Data: map[string]interface{}{
			"data": "{not json",
		},
	}
	// сообщение без поля data - тоже яд
	noData := domain.StreamMessage{
		ID:     "666-1",
		Stream: domain.StreamRoutesSynthesize,
		Data:   map[string]interface{}{},
	}

	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamRoutesSynthesize, "test-group").
		Return(nil)

	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{poison, noData}, nil).Once()
	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{}, nil)

	mockStream.On("AckMessages", mock.Anything, domain.StreamRoutesSynthesize, "test-group", []string{"666-0", "666-1"}).
		Return(nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop in time")
	}

	mockStream.AssertExpectations(t)
	mockUC.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything, mock.Anything)
}

// TestRouteSynthesisWorker_RetriesThenReportsFailure tests that the engine
// is retried up to maxRetries and the failure lands in the done stream
func TestRouteSynthesisWorker_RetriesThenReportsFailure(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 2, logger)

	jobID := uuid.New()
	job := &domain.SynthesisJobEvent{
		JobID:    jobID,
		AreaID:   "barcelona",
		Activity: domain.ActivityWalking,
	}
	msg := jobMessage(t, "42-0", job)

	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamRoutesSynthesize, "test-group").
		Return(nil)

	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{msg}, nil).Once()
	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{}, nil)

	// Обе попытки падают
	mockUC.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("segments unavailable")).Twice()

	mockStream.On("PublishToStream", mock.Anything, domain.StreamRoutesDone, mock.MatchedBy(func(e domain.SynthesisDoneEvent) bool {
		return e.JobID == jobID && e.RouteCount == 0 && e.Error == "segments unavailable"
	})).Return(nil).Once()

	mockStream.On("AckMessage", mock.Anything, domain.StreamRoutesSynthesize, "test-group", "42-0").
		Return(nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop in time")
	}

	mockStream.AssertExpectations(t)
	mockUC.AssertExpectations(t)
}

// TestRouteSynthesisWorker_KeepsPendingWhenDonePublishFails tests that a job
// is not ACKed if the done event could not be delivered
func TestRouteSynthesisWorker_KeepsPendingWhenDonePublishFails(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockUC := &MockSynthesisRunner{}
	logger := zap.NewNop()

	w := synthesis.NewRouteSynthesisWorker(mockStream, mockUC, "test-group", 1, logger)

	job := &domain.SynthesisJobEvent{
		JobID:    uuid.New(),
		AreaID:   "barcelona",
		Activity: domain.ActivityCycling,
	}
	msg := jobMessage(t, "7-0", job)

	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamRoutesSynthesize, "test-group").
		Return(nil)

	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{msg}, nil).Once()
	mockStream.On("ConsumeBatch", mock.Anything, domain.StreamRoutesSynthesize, "test-group", mock.AnythingOfType("string"), 4).
		Return([]domain.StreamMessage{}, nil).Maybe()

	result := &domain.SynthesisResult{
		AreaID:   "barcelona",
		Activity: domain.ActivityCycling,
	}
	mockUC.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).
		Return(result, nil).Once()

	mockStream.On("PublishToStream", mock.Anything, domain.StreamRoutesDone, mock.Anything).
		Return(errors.New("stream down")).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Worker did not stop in time")
	}

	mockStream.AssertExpectations(t)
	mockStream.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
