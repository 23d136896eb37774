package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// OptimizeRequest body para POST /api/reorder/{product_id}/optimize. Los campos omitidos
// se completan con el pronóstico de demanda, el catálogo y la configuración.
type OptimizeRequest struct {
	DemandAnnual      *float64 `json:"demand_annual,omitempty"`
	OrderCost         *float64 `json:"order_cost,omitempty"`
	HoldingCost       *float64 `json:"holding_cost,omitempty"`
	UnitCost          *float64 `json:"unit_cost,omitempty"`
	LeadTimeDays      *float64 `json:"lead_time_days,omitempty"`
	ServiceLevel      *float64 `json:"service_level,omitempty"`
	DemandStdDev      *float64 `json:"demand_std_dev,omitempty"`
	ApplyReorderPoint bool     `json:"apply_reorder_point,omitempty"`
}

// OptimizationResponse resultado redondeado a 2 decimales para presentación.
type OptimizationResponse struct {
	ID                 string                `json:"id"`
	ProductID          string                `json:"product_id"`
	CreatedAt          time.Time             `json:"created_at"`
	DemandAnnual       decimal.Decimal       `json:"demand_annual"`
	EOQ                decimal.Decimal       `json:"eoq"`
	ROP                decimal.Decimal       `json:"rop"`
	SafetyStock        decimal.Decimal       `json:"safety_stock"`
	Z                  decimal.Decimal       `json:"z"`
	OrderingCostAnnual decimal.Decimal       `json:"ordering_cost_annual"`
	HoldingCostAnnual  decimal.Decimal       `json:"holding_cost_annual"`
	TotalCostAnnual    decimal.Decimal       `json:"total_cost_annual"`
	OrdersPerYear      decimal.Decimal       `json:"orders_per_year"`
	DaysBetweenOrders  decimal.Decimal       `json:"days_between_orders"`
	Params             OptimizationParamsDTO `json:"params"`
}

// OptimizationParamsDTO parámetros efectivamente usados.
type OptimizationParamsDTO struct {
	OrderCost    decimal.Decimal  `json:"order_cost"`
	HoldingCost  decimal.Decimal  `json:"holding_cost"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	LeadTimeDays decimal.Decimal  `json:"lead_time_days"`
	ServiceLevel decimal.Decimal  `json:"service_level"`
	DemandStdDev decimal.Decimal  `json:"demand_std_dev"`
}

// PurchaseOrderResponse sugerencia de orden de compra.
type PurchaseOrderResponse struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	SuggestedQuantity int64           `json:"suggested_quantity"`
	SupplierID        string          `json:"supplier_id,omitempty"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	EstimatedTotal    decimal.Decimal `json:"estimated_total"`
	Source            string          `json:"source"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// UpsertProductRequest body para PUT /api/products/{id}.
type UpsertProductRequest struct {
	SKU                 string           `json:"sku"`
	Name                string           `json:"name"`
	UnitCost            decimal.Decimal  `json:"unit_cost"`
	LeadTimeDays        int              `json:"lead_time_days"`
	PreferredSupplierID string           `json:"preferred_supplier_id,omitempty"`
	OrderCost           *decimal.Decimal `json:"order_cost,omitempty"`
	HoldingRate         *decimal.Decimal `json:"holding_rate,omitempty"`
}

// ProductResponse salida del catálogo.
type ProductResponse struct {
	ID                  string           `json:"id"`
	SKU                 string           `json:"sku"`
	Name                string           `json:"name"`
	UnitCost            decimal.Decimal  `json:"unit_cost"`
	LeadTimeDays        int              `json:"lead_time_days"`
	PreferredSupplierID string           `json:"preferred_supplier_id,omitempty"`
	OrderCost           *decimal.Decimal `json:"order_cost,omitempty"`
	HoldingRate         *decimal.Decimal `json:"holding_rate,omitempty"`
}

func round2(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// ToOptimizationResponse convierte y redondea el resultado.
func ToOptimizationResponse(r *entity.OptimizationResult) OptimizationResponse {
	p := OptimizationParamsDTO{
		OrderCost:    round2(r.Params.OrderCost),
		HoldingCost:  round2(r.Params.HoldingCost),
		LeadTimeDays: round2(r.Params.LeadTimeDays),
		ServiceLevel: round2(r.Params.ServiceLevel),
		DemandStdDev: round2(r.Params.DemandStdDev),
	}
	if r.Params.UnitCost != nil {
		uc := round2(*r.Params.UnitCost)
		p.UnitCost = &uc
	}
	return OptimizationResponse{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		CreatedAt:          r.CreatedAt,
		DemandAnnual:       round2(r.DemandAnnual),
		EOQ:                round2(r.EOQ),
		ROP:                round2(r.ROP),
		SafetyStock:        round2(r.SafetyStock),
		Z:                  round2(r.Z),
		OrderingCostAnnual: round2(r.OrderingCostAnnual),
		HoldingCostAnnual:  round2(r.HoldingCostAnnual),
		TotalCostAnnual:    round2(r.TotalCostAnnual),
		OrdersPerYear:      round2(r.OrdersPerYear),
		DaysBetweenOrders:  round2(r.DaysBetweenOrders),
		Params:             p,
	}
}

// ToPurchaseOrderResponse convierte la sugerencia de compra.
func ToPurchaseOrderResponse(r *ports.PurchaseOrderRequest) PurchaseOrderResponse {
	unit := round2(r.UnitCost)
	return PurchaseOrderResponse{
		ProductID:         r.ProductID,
		SKU:               r.SKU,
		ProductName:       r.ProductName,
		SuggestedQuantity: r.SuggestedQuantity,
		SupplierID:        r.SupplierID,
		UnitCost:          unit,
		EstimatedTotal:    unit.Mul(decimal.NewFromInt(r.SuggestedQuantity)),
		Source:            r.Source,
		GeneratedAt:       r.GeneratedAt,
	}
}

// ToProductResponse convierte la entidad del catálogo.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:                  p.ID,
		SKU:                 p.SKU,
		Name:                p.Name,
		UnitCost:            p.UnitCost,
		LeadTimeDays:        p.LeadTimeDays,
		PreferredSupplierID: p.PreferredSupplierID,
		OrderCost:           p.OrderCost,
		HoldingRate:         p.HoldingRate,
	}
}
