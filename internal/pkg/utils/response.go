package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
)

// SuccessResponse - единый конверт успешного ответа API
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// ErrorResponse - единый конверт ошибки API
type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// Meta - метаданные ответа
type Meta struct {
	Total    int     `json:"total,omitempty"`
	Page     int     `json:"page,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
}

// SendSuccess - ответ 200 с данными и метаданными
func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendAccepted - ответ 202 для асинхронно запущенных задач
func SendAccepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(SuccessResponse{
		Data: data,
	})
}

// SendError - ответ с ошибкой; AppError несет свой HTTP статус
func SendError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*errors.AppError); ok {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	// Unknown error - return 500
	return c.Status(500).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
