package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
	"github.com/officeappout/out-run-app-sub002/internal/worker"
)

const (
	// синтез тяжёлый: каждое задание ходит во внешний провайдер,
	// поэтому пачки берём маленькие
	maxBatchSize    = 4
	emptyQueueSleep = 100 * time.Millisecond
)

// SynthesisRunner - контракт движка синтеза, нужный воркеру
type SynthesisRunner interface {
	Synthesize(ctx context.Context, req dto.SynthesizeRequest, sink domain.ProgressSink) (*domain.SynthesisResult, error)
}

// RouteSynthesisWorker обрабатывает задания синтеза маршрутов из стрима
type RouteSynthesisWorker struct {
	*worker.BaseWorker
	streamRepo  repository.StreamRepository
	synthesisUC SynthesisRunner
	maxRetries  int
}

// NewRouteSynthesisWorker создает новый RouteSynthesisWorker
func NewRouteSynthesisWorker(
	streamRepo repository.StreamRepository,
	synthesisUC SynthesisRunner,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *RouteSynthesisWorker {
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &RouteSynthesisWorker{
		BaseWorker:  worker.NewBaseWorker("route-synthesis", consumerGroup, logger),
		streamRepo:  streamRepo,
		synthesisUC: synthesisUC,
		maxRetries:  maxRetries,
	}
}

// Start запускает воркер
func (w *RouteSynthesisWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RouteSynthesisWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()),
		zap.Int("max_batch_size", maxBatchSize))

	// Создаем consumer group
	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamRoutesSynthesize, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	// Основной цикл обработки
	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info("Context cancelled")
					return ctx.Err()
				}
				logger.Error("Failed to process batch", zap.Error(err))
				time.Sleep(time.Second) // пауза при ошибке
				continue
			}

			if processed == 0 {
				time.Sleep(emptyQueueSleep)
			}
		}
	}
}

// processBatch читает пачку заданий и выполняет их по одному.
// Возвращает количество прочитанных сообщений.
func (w *RouteSynthesisWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamRoutesSynthesize,
		w.ConsumerGroup(),
		w.ConsumerName(),
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil // очередь пуста
	}

	logger.Info("Processing synthesis jobs",
		zap.Int("message_count", len(messages)))

	// Битые сообщения ACK'аем пачкой, чтобы не застревали в pending
	var poisonIDs []string

	for _, msg := range messages {
		job, err := w.parseJob(msg)
		if err != nil {
			logger.Warn("Failed to parse job, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			poisonIDs = append(poisonIDs, msg.ID)
			continue
		}

		if err := w.processJob(ctx, job, msg.ID); err != nil {
			// Сообщение остаётся pending и будет переобработано
			return 0, err
		}
	}

	if len(poisonIDs) > 0 {
		if err := w.streamRepo.AckMessages(ctx, domain.StreamRoutesSynthesize, w.ConsumerGroup(), poisonIDs); err != nil {
			logger.Error("Failed to ack poison messages", zap.Error(err))
		}
	}

	return len(messages), nil
}

// processJob выполняет одно задание: прогресс уходит в стрим прогресса,
// итог - в стрим завершения. ACK происходит только после публикации итога.
func (w *RouteSynthesisWorker) processJob(ctx context.Context, job *domain.SynthesisJobEvent, messageID string) error {
	logger := w.Logger()

	logger.Info("Processing synthesis job",
		zap.String("job_id", job.JobID.String()),
		zap.String("area_id", job.AreaID),
		zap.String("activity", string(job.Activity)),
		zap.Bool("hybrid", job.Hybrid))

	req := dto.SynthesizeRequest{
		AreaID:    job.AreaID,
		Activity:  string(job.Activity),
		Hybrid:    job.Hybrid,
		MaxRoutes: job.MaxRoutes,
	}

	sink := &streamProgressSink{
		ctx:        ctx,
		streamRepo: w.streamRepo,
		logger:     logger,
		job:        job,
	}

	var result *domain.SynthesisResult
	var err error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		result, err = w.synthesisUC.Synthesize(ctx, req, sink)
		if err == nil || ctx.Err() != nil {
			break
		}
		logger.Warn("Synthesis attempt failed",
			zap.String("job_id", job.JobID.String()),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", w.maxRetries),
			zap.Error(err))
	}

	// При остановке не ACK'аем: задание переобработается после рестарта
	if ctx.Err() != nil {
		return ctx.Err()
	}

	doneEvent := domain.SynthesisDoneEvent{
		JobID:  job.JobID,
		AreaID: job.AreaID,
	}
	if err != nil {
		doneEvent.Error = err.Error()
		logger.Error("Synthesis job failed",
			zap.String("job_id", job.JobID.String()),
			zap.String("area_id", job.AreaID),
			zap.Error(err))
	} else {
		doneEvent.RouteCount = len(result.Routes)
		doneEvent.Summary = &result.Summary
		logger.Info("Synthesis job completed",
			zap.String("job_id", job.JobID.String()),
			zap.String("area_id", job.AreaID),
			zap.Int("route_count", len(result.Routes)))
	}

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamRoutesDone, doneEvent); err != nil {
		logger.Error("Failed to publish done event",
			zap.String("job_id", job.JobID.String()),
			zap.Error(err))
		// Итог не доставлен - оставляем задание pending
		return fmt.Errorf("failed to publish done event: %w", err)
	}

	if err := w.streamRepo.AckMessage(ctx, domain.StreamRoutesSynthesize, w.ConsumerGroup(), messageID); err != nil {
		logger.Error("Failed to ack message",
			zap.String("message_id", messageID),
			zap.Error(err))
		// Не критично - повторная обработка лишь перезапишет маршруты области
	}

	return nil
}

// parseJob парсит сообщение стрима в SynthesisJobEvent
func (w *RouteSynthesisWorker) parseJob(msg domain.StreamMessage) (*domain.SynthesisJobEvent, error) {
	data, ok := msg.Data["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var job domain.SynthesisJobEvent
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	if job.AreaID == "" {
		return nil, fmt.Errorf("job has empty area_id")
	}

	return &job, nil
}

// streamProgressSink пересылает события прогресса движка в Redis Stream,
// обогащая их идентификатором задания
type streamProgressSink struct {
	ctx        context.Context
	streamRepo repository.StreamRepository
	logger     *zap.Logger
	job        *domain.SynthesisJobEvent
}

// Publish публикует событие прогресса. Ошибки публикации не прерывают
// синтез: прогресс - вспомогательный сигнал.
func (s *streamProgressSink) Publish(event domain.ProgressEvent) {
	progressEvent := domain.SynthesisProgressEvent{
		JobID:   s.job.JobID,
		AreaID:  s.job.AreaID,
		Phase:   event.Phase,
		Detail:  event.Detail,
		Percent: event.Percent,
	}

	if err := s.streamRepo.PublishToStream(s.ctx, domain.StreamRoutesProgress, progressEvent); err != nil {
		s.logger.Warn("Failed to publish progress event",
			zap.String("job_id", s.job.JobID.String()),
			zap.String("phase", string(event.Phase)),
			zap.Error(err))
	}
}
