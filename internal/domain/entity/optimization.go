package entity

import "time"

// OptimizationParams parámetros efectivamente usados en un cálculo EOQ/ROP.
type OptimizationParams struct {
	OrderCost    float64
	HoldingCost  float64 // costo de mantener una unidad durante un año
	UnitCost     *float64
	LeadTimeDays float64
	ServiceLevel float64
	DemandStdDev float64 // desviación estándar de la demanda diaria
}

// OptimizationResult resultado inmutable de la optimización de reorden para un producto.
// Una nueva corrida lo reemplaza como "último", nunca se edita.
type OptimizationResult struct {
	ID                 string
	ProductID          string
	CreatedAt          time.Time
	DemandAnnual       float64
	EOQ                float64
	ROP                float64
	SafetyStock        float64
	Z                  float64
	OrderingCostAnnual float64
	HoldingCostAnnual  float64
	TotalCostAnnual    float64
	OrdersPerYear      float64
	DaysBetweenOrders  float64
	Params             OptimizationParams
}
