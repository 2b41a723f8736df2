package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	pkgerrors "github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/utils"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/validator"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
)

// SynthesisHandler обрабатывает запросы на синтез маршрутов
type SynthesisHandler struct {
	synthesisUC *usecase.RouteSynthesisUseCase
	streamRepo  repository.StreamRepository
	logger      *zap.Logger
}

// NewSynthesisHandler создает новый экземпляр SynthesisHandler
func NewSynthesisHandler(
	synthesisUC *usecase.RouteSynthesisUseCase,
	streamRepo repository.StreamRepository,
	logger *zap.Logger,
) *SynthesisHandler {
	return &SynthesisHandler{
		synthesisUC: synthesisUC,
		streamRepo:  streamRepo,
		logger:      logger,
	}
}

// Synthesize godoc
// @Summary Synthesize curated routes for an area
// @Description Запускает полный конвейер синтеза синхронно и возвращает результат. Пустой список маршрутов - нормальный исход для области без подходящей инфраструктуры
// @Tags Synthesis
// @Accept json
// @Produce json
// @Param area_id path string true "Area ID"
// @Param request body dto.SynthesizeRequest true "Synthesis parameters"
// @Success 200 {object} utils.SuccessResponse{data=domain.SynthesisResult}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/areas/{area_id}/routes/synthesize [post]
func (h *SynthesisHandler) Synthesize(c *fiber.Ctx) error {
	var req dto.SynthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.AreaID = c.Params("area_id")

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Info("Starting synchronous synthesis",
		zap.String("area_id", req.AreaID),
		zap.String("activity", req.Activity),
		zap.Bool("hybrid", req.Hybrid))

	result, err := h.synthesisUC.Synthesize(c.Context(), req, nil)
	if err != nil {
		h.logger.Error("Synthesis failed",
			zap.String("area_id", req.AreaID), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: len(result.Routes),
	})
}

// SynthesizeAsync godoc
// @Summary Enqueue a synthesis job for an area
// @Description Публикует задание в Redis Stream и сразу возвращает job_id. Прогресс и результат уходят в стримы прогресса и завершения
// @Tags Synthesis
// @Accept json
// @Produce json
// @Param area_id path string true "Area ID"
// @Param request body dto.SynthesizeRequest true "Synthesis parameters"
// @Success 202 {object} utils.SuccessResponse{data=dto.SynthesisJobResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/areas/{area_id}/routes/synthesize/async [post]
func (h *SynthesisHandler) SynthesizeAsync(c *fiber.Ctx) error {
	var req dto.SynthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.AreaID = c.Params("area_id")

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	event := domain.SynthesisJobEvent{
		JobID:     uuid.New(),
		AreaID:    req.AreaID,
		Activity:  domain.ActivityType(req.Activity),
		Hybrid:    req.Hybrid,
		MaxRoutes: req.MaxRoutes,
	}

	if err := h.streamRepo.PublishToStream(c.Context(), domain.StreamRoutesSynthesize, event); err != nil {
		h.logger.Error("Failed to enqueue synthesis job",
			zap.String("area_id", req.AreaID), zap.Error(err))
		return utils.SendError(c, pkgerrors.ErrStreamError)
	}

	h.logger.Info("Synthesis job enqueued",
		zap.String("job_id", event.JobID.String()),
		zap.String("area_id", req.AreaID),
		zap.String("activity", req.Activity))

	return utils.SendAccepted(c, dto.SynthesisJobResponse{
		JobID:    event.JobID.String(),
		AreaID:   req.AreaID,
		Activity: req.Activity,
		Status:   "queued",
	})
}
