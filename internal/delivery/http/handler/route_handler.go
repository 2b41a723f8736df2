package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/pkg/utils"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/validator"
	"github.com/officeappout/out-run-app-sub002/internal/usecase"
	"github.com/officeappout/out-run-app-sub002/internal/usecase/dto"
)

// RouteHandler обрабатывает запросы на чтение готовых маршрутов
type RouteHandler struct {
	routeUC *usecase.RouteUseCase
	logger  *zap.Logger
}

// NewRouteHandler создает новый экземпляр RouteHandler
func NewRouteHandler(routeUC *usecase.RouteUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routeUC: routeUC,
		logger:  logger,
	}
}

// ListRoutes godoc
// @Summary List curated routes of an area
// @Description Возвращает список маршрутов области без полной геометрии, с опциональным фильтром по активности
// @Tags Routes
// @Accept json
// @Produce json
// @Param area_id path string true "Area ID"
// @Param activity query string false "Activity filter (walking, running, cycling)"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListRoutesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/areas/{area_id}/routes [get]
func (h *RouteHandler) ListRoutes(c *fiber.Ctx) error {
	req := dto.ListRoutesRequest{
		AreaID:   c.Params("area_id"),
		Activity: c.Query("activity"),
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routeUC.ListByArea(c.Context(), req)
	if err != nil {
		h.logger.Error("Failed to list routes",
			zap.String("area_id", req.AreaID), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
	})
}

// GetSummary godoc
// @Summary Last synthesis summary of an area
// @Description Возвращает статистику последнего синтеза области из кеша
// @Tags Routes
// @Produce json
// @Param area_id path string true "Area ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.SynthesisSummary}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/areas/{area_id}/routes/summary [get]
func (h *RouteHandler) GetSummary(c *fiber.Ctx) error {
	areaID := c.Params("area_id")

	summary, err := h.routeUC.GetSummary(c.Context(), areaID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, summary, nil)
}

// GetRoute godoc
// @Summary Get a curated route by ID
// @Description Возвращает маршрут целиком, включая геометрию и остановки
// @Tags Routes
// @Produce json
// @Param id path string true "Route ID (UUID)"
// @Success 200 {object} utils.SuccessResponse{data=domain.CuratedRoute}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [get]
func (h *RouteHandler) GetRoute(c *fiber.Ctx) error {
	route, err := h.routeUC.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// ExportGPX godoc
// @Summary Export a curated route as GPX
// @Description Отдаёт маршрут как GPX-файл: трек с геометрией и waypoints из остановок
// @Tags Routes
// @Produce application/gpx+xml
// @Param id path string true "Route ID (UUID)"
// @Success 200 {string} string "GPX document"
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/gpx [get]
func (h *RouteHandler) ExportGPX(c *fiber.Ctx) error {
	data, filename, err := h.routeUC.ExportGPX(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/gpx+xml")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
