package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/reorder"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// ReorderHandler expone la optimización EOQ/ROP y las órdenes de compra sugeridas.
type ReorderHandler struct {
	optimizer *reorder.Optimizer
	log       *logger.Logger
}

// NewReorderHandler construye el handler.
func NewReorderHandler(optimizer *reorder.Optimizer, log *logger.Logger) *ReorderHandler {
	return &ReorderHandler{optimizer: optimizer, log: log}
}

// Optimize godoc
// @Summary      Calcular EOQ, ROP y stock de seguridad
// @Tags         reorder
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string               true   "ID del producto"
// @Param        body        body  dto.OptimizeRequest  false  "parámetros; los omitidos se toman del pronóstico, catálogo y configuración"
// @Success      201  {object}  dto.OptimizationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse  "INVALID_PARAMETERS"
// @Router       /api/reorder/{product_id}/optimize [post]
func (h *ReorderHandler) Optimize(c *fiber.Ctx) error {
	var in dto.OptimizeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.optimizer.Optimize(c.UserContext(), c.Params("product_id"), reorder.OptimizeInput{
		DemandAnnual:      in.DemandAnnual,
		OrderCost:         in.OrderCost,
		HoldingCost:       in.HoldingCost,
		UnitCost:          in.UnitCost,
		LeadTimeDays:      in.LeadTimeDays,
		ServiceLevel:      in.ServiceLevel,
		DemandStdDev:      in.DemandStdDev,
		ApplyReorderPoint: in.ApplyReorderPoint,
	})
	if err != nil {
		if res == nil {
			return respondError(c, h.log, err)
		}
		// El cálculo quedó guardado; solo falló aplicar el ROP a la proyección.
		h.log.Warn().Err(err).Str("product_id", res.ProductID).Msg("optimización sin aplicar punto de reorden")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToOptimizationResponse(res))
}

// Latest godoc
// @Summary      Última optimización del producto
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.OptimizationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reorder/{product_id} [get]
func (h *ReorderHandler) Latest(c *fiber.Ctx) error {
	res, err := h.optimizer.Latest(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToOptimizationResponse(res))
}

// History godoc
// @Summary      Historial de optimizaciones
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Success      200  {array}  dto.OptimizationResponse
// @Router       /api/reorder/{product_id}/history [get]
func (h *ReorderHandler) History(c *fiber.Ctx) error {
	list, err := h.optimizer.History(c.UserContext(), c.Params("product_id"), c.QueryInt("limit", 20))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toOptimizationResponses(list))
}

// PurchaseOrder godoc
// @Summary      Orden de compra sugerida
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse  "sin optimización ni alerta de faltante"
// @Router       /api/reorder/{product_id}/purchase-order [get]
func (h *ReorderHandler) PurchaseOrder(c *fiber.Ctx) error {
	req, err := h.optimizer.SuggestPurchaseOrder(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToPurchaseOrderResponse(req))
}

// PurchaseOrderPDF godoc
// @Summary      Orden de compra sugerida en PDF
// @Tags         reorder
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reorder/{product_id}/purchase-order/pdf [get]
func (h *ReorderHandler) PurchaseOrderPDF(c *fiber.Ctx) error {
	req, doc, err := h.optimizer.GeneratePurchaseOrder(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="orden-compra-%s.pdf"`, req.ProductID))
	return c.Send(doc)
}

func toOptimizationResponses(list []*entity.OptimizationResult) []dto.OptimizationResponse {
	out := make([]dto.OptimizationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ToOptimizationResponse(r))
	}
	return out
}
