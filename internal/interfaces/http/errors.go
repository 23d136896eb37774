package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// respondError traduce errores de dominio a status HTTP. Lo no tipado se registra y sale como 500
// sin exponer el detalle.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: "stock insuficiente",
			Details: map[string]any{
				"product_id": insufficient.ProductID,
				"available":  insufficient.Available,
				"requested":  insufficient.Requested,
			},
		})
	}

	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", "error interno"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", "datos inválidos"
	case errors.Is(err, domain.ErrInvalidParameters):
		status, code, msg = fiber.StatusUnprocessableEntity, "INVALID_PARAMETERS", "demanda, costo de pedido y costo de mantener deben ser > 0"
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"
	case errors.Is(err, domain.ErrAlreadyVoided):
		status, code, msg = fiber.StatusConflict, "ALREADY_VOIDED", "el movimiento ya está anulado"
	case errors.Is(err, domain.ErrNotVoided):
		status, code, msg = fiber.StatusConflict, "NOT_VOIDED", "el movimiento no está anulado"
	case errors.Is(err, domain.ErrDuplicateAlert):
		status, code, msg = fiber.StatusConflict, "DUPLICATE_ALERT", "ya existe una alerta pendiente de ese tipo"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code, msg = fiber.StatusConflict, "INVALID_TRANSITION", "transición de estado no permitida"
	case errors.Is(err, domain.ErrConflict):
		status, code, msg = fiber.StatusConflict, "CONFLICT", "recurso ocupado, reintente"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// page lee limit/offset con los topes habituales.
func page(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
