package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/alerts"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// AlertHandler maneja el ciclo de vida de las alertas de inventario.
type AlertHandler struct {
	engine *alerts.Engine
	log    *logger.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(engine *alerts.Engine, log *logger.Logger) *AlertHandler {
	return &AlertHandler{engine: engine, log: log}
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        type        query  string  false  "Tipo de alerta"
// @Param        state       query  string  false  "PENDING | IN_PROGRESS | RESOLVED | IGNORED | ESCALATED"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AlertListResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.engine.List(c.UserContext(), repository.AlertFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
		State:     c.Query("state"),
		Limit:     p.Limit,
		Offset:    p.Offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := dto.ToAlertResponses(list)
	return c.JSON(dto.AlertListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset, Total: len(items)},
	})
}

// Get godoc
// @Summary      Obtener alerta
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/{id} [get]
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	a, err := h.engine.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToAlertResponse(a))
}

// Create godoc
// @Summary      Crear alerta manual
// @Description  Si ya hay una PENDING del mismo tipo para el producto se devuelve esa (200).
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAlertRequest  true  "alerta"
// @Success      201   {object}  dto.AlertResponse
// @Success      200   {object}  dto.AlertResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/alerts [post]
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAlertRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	a, created, err := h.engine.Create(c.UserContext(), alerts.CreateAlertInput{
		ProductID:         in.ProductID,
		Type:              in.Type,
		Severity:          in.Severity,
		Message:           in.Message,
		SuggestedQuantity: in.SuggestedQuantity,
		UserID:            GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(dto.ToAlertResponse(a))
}

// Transition godoc
// @Summary      Cambiar estado de una alerta
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la alerta"
// @Param        body  body  dto.TransitionAlertRequest  true  "nuevo estado"
// @Success      200   {object}  dto.AlertResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/alerts/{id} [patch]
func (h *AlertHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionAlertRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	a, err := h.engine.Transition(c.UserContext(), c.Params("id"), alerts.TransitionInput{
		State:       in.State,
		Note:        in.Note,
		ActionTaken: in.ActionTaken,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToAlertResponse(a))
}

// TransitionBatch godoc
// @Summary      Cambiar estado de varias alertas
// @Description  Cada alerta se procesa de forma independiente; las fallidas se reportan por ID.
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchTransitionRequest  true  "ids y nuevo estado"
// @Success      200   {object}  dto.BatchTransitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/alerts/batch [post]
func (h *AlertHandler) TransitionBatch(c *fiber.Ctx) error {
	var in dto.BatchTransitionRequest
	if err := c.BodyParser(&in); err != nil || len(in.IDs) == 0 {
		return badBody(c)
	}
	res := h.engine.TransitionBatch(c.UserContext(), in.IDs, alerts.TransitionInput{
		State:       in.State,
		Note:        in.Note,
		ActionTaken: in.ActionTaken,
		UserID:      GetUserID(c),
	})
	out := dto.BatchTransitionResponse{
		Succeeded: make([]string, 0, len(res.Succeeded)),
		Failed:    make(map[string]string, len(res.Failed)),
	}
	for _, a := range res.Succeeded {
		out.Succeeded = append(out.Succeeded, a.ID)
	}
	for id, err := range res.Failed {
		out.Failed[id] = err.Error()
	}
	return c.JSON(out)
}

// Evaluate godoc
// @Summary      Evaluar alertas de un producto
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.EvaluationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/evaluate/{product_id} [post]
func (h *AlertHandler) Evaluate(c *fiber.Ctx) error {
	res, err := h.engine.Evaluate(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.EvaluationResponse{
		Created:  dto.ToAlertResponses(res.Created),
		Resolved: dto.ToAlertResponses(res.Resolved),
	})
}
