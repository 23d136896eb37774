package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// KardexHandler maneja el registro y la consulta de movimientos.
type KardexHandler struct {
	ledger *inventory.Ledger
	log    *logger.Logger
}

// NewKardexHandler construye el handler.
func NewKardexHandler(ledger *inventory.Ledger, log *logger.Logger) *KardexHandler {
	return &KardexHandler{ledger: ledger, log: log}
}

// Append godoc
// @Summary      Registrar movimiento en el kardex
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendMovementRequest  true  "kind ENTRY/EXIT/ADJUSTMENT, subtype, quantity > 0"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK o CONFLICT"
// @Router       /api/kardex/movements [post]
func (h *KardexHandler) Append(c *fiber.Ctx) error {
	var in dto.AppendMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.ledger.Append(c.UserContext(), inventory.AppendInput{
		ProductID:      in.ProductID,
		Kind:           in.Kind,
		Subtype:        in.Subtype,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		DocumentNumber: in.DocumentNumber,
		SupplierID:     in.SupplierID,
		UserID:         GetUserID(c),
		Lot:            in.Lot,
		ExpiresAt:      in.ExpiresAt,
		Notes:          in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(mov))
}

// Get godoc
// @Summary      Obtener movimiento
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kardex/movements/{id} [get]
func (h *KardexHandler) Get(c *fiber.Ctx) error {
	mov, err := h.ledger.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToMovementResponse(mov))
}

// Void godoc
// @Summary      Anular movimiento
// @Description  Agrega una fila REVERSAL y marca el original como anulado.
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true   "ID del movimiento"
// @Param        body  body  dto.CompensateRequest  false  "motivo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "ALREADY_VOIDED o INSUFFICIENT_STOCK"
// @Router       /api/kardex/movements/{id}/void [post]
func (h *KardexHandler) Void(c *fiber.Ctx) error {
	var in dto.CompensateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	comp, err := h.ledger.Void(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(comp))
}

// Restore godoc
// @Summary      Restaurar movimiento anulado
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true   "ID del movimiento"
// @Param        body  body  dto.CompensateRequest  false  "motivo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "NOT_VOIDED o INSUFFICIENT_STOCK"
// @Router       /api/kardex/movements/{id}/restore [post]
func (h *KardexHandler) Restore(c *fiber.Ctx) error {
	var in dto.CompensateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	comp, err := h.ledger.Restore(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(comp))
}

// List godoc
// @Summary      Kardex de un producto
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        product_id             path   string  true   "ID del producto"
// @Param        from                   query  string  false  "RFC3339"
// @Param        to                     query  string  false  "RFC3339"
// @Param        kind                   query  string  false  "ENTRY | EXIT | ADJUSTMENT | REVERSAL | REINSTATEMENT"
// @Param        subtype                query  string  false  "Subtipo"
// @Param        include_compensations  query  bool    false  "Incluir filas REVERSAL/REINSTATEMENT" default(true)
// @Param        limit                  query  int     false  "Límite"  default(20)
// @Param        offset                 query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/kardex/products/{product_id}/movements [get]
func (h *KardexHandler) List(c *fiber.Ctx) error {
	p := page(c)
	filter := repository.MovementFilter{
		Kind:                 c.Query("kind"),
		Subtype:              c.Query("subtype"),
		IncludeCompensations: c.QueryBool("include_compensations", true),
		Limit:                p.Limit,
		Offset:               p.Offset,
	}
	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		return respondError(c, h.log, err)
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.ledger.List(c.UserContext(), c.Params("product_id"), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.ToMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset, Total: len(items)},
	})
}

// Balance godoc
// @Summary      Saldo actual según el kardex
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/kardex/products/{product_id}/balance [get]
func (h *KardexHandler) Balance(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	balance, err := h.ledger.CurrentBalance(c.UserContext(), productID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.BalanceResponse{ProductID: productID, Balance: balance})
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &t, nil
}
