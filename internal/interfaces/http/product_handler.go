package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// ProductHandler mantiene los datos de catálogo que consume el optimizador (costo, lead time, proveedor).
type ProductHandler struct {
	repo repository.ProductRepository
	log  *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(repo repository.ProductRepository, log *logger.Logger) *ProductHandler {
	return &ProductHandler{repo: repo, log: log}
}

// Upsert godoc
// @Summary      Crear o actualizar producto del catálogo
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.UpsertProductRequest  true  "datos de catálogo"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Upsert(c *fiber.Ctx) error {
	var in dto.UpsertProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	id := c.Params("id")
	if id == "" || in.UnitCost.IsNegative() || in.LeadTimeDays < 0 {
		return respondError(c, h.log, domain.ErrInvalidInput)
	}
	if (in.OrderCost != nil && in.OrderCost.IsNegative()) || (in.HoldingRate != nil && in.HoldingRate.IsNegative()) {
		return respondError(c, h.log, domain.ErrInvalidInput)
	}
	p := &entity.Product{
		ID:                  id,
		SKU:                 in.SKU,
		Name:                in.Name,
		UnitCost:            in.UnitCost,
		LeadTimeDays:        in.LeadTimeDays,
		PreferredSupplierID: in.PreferredSupplierID,
		OrderCost:           in.OrderCost,
		HoldingRate:         in.HoldingRate,
	}
	if err := h.repo.Upsert(c.UserContext(), p); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	p, err := h.repo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if p == nil {
		return respondError(c, h.log, domain.ErrNotFound)
	}
	return c.JSON(dto.ToProductResponse(p))
}
