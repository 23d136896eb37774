package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// integrityLister expone las últimas inconsistencias reportadas (lo implementa audit.LogReporter).
type integrityLister interface {
	Recent() []ports.ReconcileReport
}

// StockHandler consulta y configura la proyección de stock.
type StockHandler struct {
	projection *inventory.Projection
	integrity  integrityLister
	log        *logger.Logger
}

// NewStockHandler construye el handler. integrity puede ser nil.
func NewStockHandler(projection *inventory.Projection, integrity integrityLister, log *logger.Logger) *StockHandler {
	return &StockHandler{projection: projection, integrity: integrity, log: log}
}

// Get godoc
// @Summary      Stock de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	level, err := h.projection.Get(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToStockLevelResponse(level, time.Now()))
}

// List godoc
// @Summary      Listar stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "NORMAL | LOW | CRITICAL | EXCESS | DEPLETED"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !entity.ValidStockStatus(status) {
		return respondError(c, h.log, domain.ErrInvalidInput)
	}
	p := page(c)
	list, err := h.projection.List(c.UserContext(), status, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	now := time.Now()
	items := make([]dto.StockLevelResponse, 0, len(list))
	for _, s := range list {
		items = append(items, dto.ToStockLevelResponse(s, now))
	}
	return c.JSON(dto.StockListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset, Total: len(items)},
	})
}

// SetThresholds godoc
// @Summary      Configurar mínimo, máximo y punto de reorden
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                 true  "ID del producto"
// @Param        body        body  dto.ThresholdsRequest  true  "umbrales"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/thresholds [put]
func (h *StockHandler) SetThresholds(c *fiber.Ctx) error {
	var in dto.ThresholdsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	level, err := h.projection.SetThresholds(c.UserContext(), c.Params("product_id"), inventory.ThresholdsInput{
		Minimum:      in.Minimum,
		Maximum:      in.Maximum,
		ReorderPoint: in.ReorderPoint,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToStockLevelResponse(level, time.Now()))
}

// Reconcile godoc
// @Summary      Conciliar proyección contra el kardex
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/reconcile [post]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.projection.Reconcile(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToReconcileResponse(report))
}

// ReconcileAll godoc
// @Summary      Auditar todos los productos
// @Description  Devuelve solo los productos inconsistentes.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReconcileResponse
// @Router       /api/stock/reconcile [post]
func (h *StockHandler) ReconcileAll(c *fiber.Ctx) error {
	reports, err := h.projection.ReconcileAll(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toReconcileResponses(reports))
}

// Integrity godoc
// @Summary      Últimas inconsistencias detectadas
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReconcileResponse
// @Router       /api/stock/integrity [get]
func (h *StockHandler) Integrity(c *fiber.Ctx) error {
	if h.integrity == nil {
		return c.JSON([]dto.ReconcileResponse{})
	}
	return c.JSON(toReconcileResponses(h.integrity.Recent()))
}

func toReconcileResponses(reports []ports.ReconcileReport) []dto.ReconcileResponse {
	out := make([]dto.ReconcileResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, dto.ToReconcileResponse(r))
	}
	return out
}
