// Package reorder calcula EOQ/ROP por producto y arma las sugerencias de orden de compra.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/optimizer"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Fuentes de la cantidad sugerida en una orden de compra.
const (
	SourceOptimization = "OPTIMIZATION"
	SourceAlert        = "ALERT"
)

// Defaults valores usados cuando ni el caller ni el catálogo los aportan.
type Defaults struct {
	ServiceLevel        float64
	HoldingRate         float64 // fracción anual del costo unitario
	OrderCost           float64
	ForecastHorizonDays int
}

// ReorderPointSetter escribe el ROP calculado en la proyección de stock.
type ReorderPointSetter interface {
	SetReorderPoint(ctx context.Context, productID string, reorderPoint int64) (*entity.StockLevel, error)
}

// Optimizer caso de uso de optimización de reorden.
type Optimizer struct {
	optRepo   repository.OptimizationRepository
	alertRepo repository.AlertRepository
	catalog   ports.ProductCatalog
	forecast  ports.ForecastProvider
	poGen     ports.PurchaseOrderGenerator
	rop       ReorderPointSetter
	defaults  Defaults
	log       *logger.Logger
	now       func() time.Time
}

// NewOptimizer construye el optimizador. catalog, forecast, poGen y rop pueden ser nil;
// en ese caso los parámetros correspondientes deben venir en la entrada.
func NewOptimizer(
	optRepo repository.OptimizationRepository,
	alertRepo repository.AlertRepository,
	catalog ports.ProductCatalog,
	forecast ports.ForecastProvider,
	poGen ports.PurchaseOrderGenerator,
	rop ReorderPointSetter,
	defaults Defaults,
	log *logger.Logger,
) *Optimizer {
	return &Optimizer{
		optRepo:   optRepo,
		alertRepo: alertRepo,
		catalog:   catalog,
		forecast:  forecast,
		poGen:     poGen,
		rop:       rop,
		defaults:  defaults,
		log:       log,
		now:       time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (o *Optimizer) SetClock(now func() time.Time) { o.now = now }

// OptimizeInput parámetros opcionales; los nil se completan con pronóstico, catálogo y defaults.
type OptimizeInput struct {
	DemandAnnual      *float64
	OrderCost         *float64
	HoldingCost       *float64
	UnitCost          *float64
	LeadTimeDays      *float64
	ServiceLevel      *float64
	DemandStdDev      *float64
	ApplyReorderPoint bool
}

// Optimize calcula EOQ, ROP, stock de seguridad y costos anuales y persiste un resultado nuevo.
func (o *Optimizer) Optimize(ctx context.Context, productID string, in OptimizeInput) (*entity.OptimizationResult, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	params, demand, err := o.resolve(ctx, productID, in)
	if err != nil {
		return nil, err
	}
	out, err := optimizer.Calculate(optimizer.Input{
		DemandAnnual: demand,
		OrderCost:    params.OrderCost,
		HoldingCost:  params.HoldingCost,
		LeadTimeDays: params.LeadTimeDays,
		ServiceLevel: params.ServiceLevel,
		DemandStdDev: params.DemandStdDev,
	})
	if err != nil {
		return nil, err
	}

	res := &entity.OptimizationResult{
		ID:                 uuid.New().String(),
		ProductID:          productID,
		CreatedAt:          o.now(),
		DemandAnnual:       demand,
		EOQ:                out.EOQ,
		ROP:                out.ROP,
		SafetyStock:        out.SafetyStock,
		Z:                  out.Z,
		OrderingCostAnnual: out.OrderingCostAnnual,
		HoldingCostAnnual:  out.HoldingCostAnnual,
		TotalCostAnnual:    out.TotalCostAnnual,
		OrdersPerYear:      out.OrdersPerYear,
		DaysBetweenOrders:  out.DaysBetweenOrders,
		Params:             params,
	}
	if err := o.optRepo.Create(ctx, res); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("product_id", productID).
		Float64("eoq", res.EOQ).
		Float64("rop", res.ROP).
		Float64("safety_stock", res.SafetyStock).
		Msg("optimización de reorden calculada")

	if in.ApplyReorderPoint && o.rop != nil {
		if _, err := o.rop.SetReorderPoint(ctx, productID, inventory.CeilQuantity(res.ROP)); err != nil {
			return res, fmt.Errorf("aplicar punto de reorden: %w", err)
		}
	}
	return res, nil
}

// resolve completa los parámetros y valida rangos antes de tocar las fórmulas.
func (o *Optimizer) resolve(ctx context.Context, productID string, in OptimizeInput) (entity.OptimizationParams, float64, error) {
	var params entity.OptimizationParams

	var product *entity.Product
	if o.catalog != nil && (in.UnitCost == nil || in.LeadTimeDays == nil || in.OrderCost == nil || in.HoldingCost == nil) {
		p, err := o.catalog.GetProduct(ctx, productID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return params, 0, err
		}
		product = p
	}

	var fc *ports.Forecast
	if o.forecast != nil && (in.DemandAnnual == nil || in.DemandStdDev == nil) {
		f, err := o.forecast.GetDemandForecast(ctx, productID, o.defaults.ForecastHorizonDays)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return params, 0, err
		}
		fc = f
	}

	var demand float64
	switch {
	case in.DemandAnnual != nil:
		demand = *in.DemandAnnual
	case fc != nil:
		demand = fc.DemandAnnual
	}

	switch {
	case in.UnitCost != nil:
		if !(*in.UnitCost > 0) {
			return params, 0, domain.ErrInvalidInput
		}
		uc := *in.UnitCost
		params.UnitCost = &uc
	case product != nil && product.UnitCost.IsPositive():
		uc := product.UnitCost.InexactFloat64()
		params.UnitCost = &uc
	}

	switch {
	case in.OrderCost != nil:
		params.OrderCost = *in.OrderCost
	case product != nil && product.OrderCost != nil:
		params.OrderCost = product.OrderCost.InexactFloat64()
	default:
		params.OrderCost = o.defaults.OrderCost
	}

	switch {
	case in.HoldingCost != nil:
		params.HoldingCost = *in.HoldingCost
	case params.UnitCost != nil:
		rate := o.defaults.HoldingRate
		if product != nil && product.HoldingRate != nil {
			rate = product.HoldingRate.InexactFloat64()
		}
		params.HoldingCost = *params.UnitCost * rate
	}

	switch {
	case in.LeadTimeDays != nil:
		params.LeadTimeDays = *in.LeadTimeDays
	case product != nil:
		params.LeadTimeDays = float64(product.LeadTimeDays)
	}
	if params.LeadTimeDays < 0 {
		return params, 0, domain.ErrInvalidInput
	}

	params.ServiceLevel = o.defaults.ServiceLevel
	if in.ServiceLevel != nil {
		params.ServiceLevel = *in.ServiceLevel
	}
	if params.ServiceLevel < optimizer.MinServiceLevel || params.ServiceLevel > optimizer.MaxServiceLevel {
		return params, 0, domain.ErrInvalidInput
	}

	switch {
	case in.DemandStdDev != nil:
		params.DemandStdDev = *in.DemandStdDev
	case fc != nil:
		params.DemandStdDev = fc.DemandStdDev
	}
	if params.DemandStdDev < 0 {
		return params, 0, domain.ErrInvalidInput
	}

	if !(demand > 0) || !(params.OrderCost > 0) || !(params.HoldingCost > 0) {
		return params, 0, domain.ErrInvalidParameters
	}
	return params, demand, nil
}

// Latest último resultado del producto.
func (o *Optimizer) Latest(ctx context.Context, productID string) (*entity.OptimizationResult, error) {
	res, err := o.optRepo.Latest(ctx, productID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

// History resultados del producto, el más reciente primero.
func (o *Optimizer) History(ctx context.Context, productID string, limit int) ([]*entity.OptimizationResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return o.optRepo.ListByProduct(ctx, productID, limit)
}

// SuggestPurchaseOrder arma la solicitud de compra con el EOQ de la última optimización o,
// si no existe, con la cantidad sugerida de la alerta de faltante pendiente más grave.
func (o *Optimizer) SuggestPurchaseOrder(ctx context.Context, productID string) (*ports.PurchaseOrderRequest, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	req := &ports.PurchaseOrderRequest{ProductID: productID, GeneratedAt: o.now()}

	latest, err := o.optRepo.Latest(ctx, productID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		req.SuggestedQuantity = inventory.CeilQuantity(latest.EOQ)
		req.Source = SourceOptimization
		if latest.Params.UnitCost != nil {
			req.UnitCost = *latest.Params.UnitCost
		}
	} else {
		qty, err := o.alertQuantity(ctx, productID)
		if err != nil {
			return nil, err
		}
		req.SuggestedQuantity = qty
		req.Source = SourceAlert
	}
	if req.SuggestedQuantity <= 0 {
		return nil, domain.ErrNotFound
	}

	if o.catalog != nil {
		p, err := o.catalog.GetProduct(ctx, productID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if p != nil {
			req.SKU = p.SKU
			req.ProductName = p.Name
			req.SupplierID = p.PreferredSupplierID
			if req.UnitCost == 0 {
				req.UnitCost = p.UnitCost.InexactFloat64()
			}
		}
	}
	return req, nil
}

func (o *Optimizer) alertQuantity(ctx context.Context, productID string) (int64, error) {
	var best *entity.Alert
	for _, t := range []string{entity.AlertTypeCritical, entity.AlertTypeLowStock, entity.AlertTypeReorderPoint} {
		a, err := o.alertRepo.FindPending(ctx, productID, t)
		if err != nil {
			return 0, err
		}
		if a == nil || a.SuggestedQuantity == nil {
			continue
		}
		if best == nil || entity.SeverityRank(a.Severity) > entity.SeverityRank(best.Severity) {
			best = a
		}
	}
	if best == nil {
		return 0, nil
	}
	return *best.SuggestedQuantity, nil
}

// GeneratePurchaseOrder arma la sugerencia y la entrega al generador de documentos.
func (o *Optimizer) GeneratePurchaseOrder(ctx context.Context, productID string) (*ports.PurchaseOrderRequest, []byte, error) {
	if o.poGen == nil {
		return nil, nil, fmt.Errorf("generador de órdenes no configurado")
	}
	req, err := o.SuggestPurchaseOrder(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := o.poGen.Generate(ctx, *req)
	if err != nil {
		return nil, nil, err
	}
	return req, doc, nil
}
