// Package optimizer implementa el modelo clásico EOQ/ROP (servicio de dominio puro, sin redondeos intermedios).
package optimizer

import (
	"math"

	"github.com/jhoicas/kardex-api/internal/domain"
)

// DaysPerYear base de conversión demanda anual ↔ diaria.
const DaysPerYear = 365.0

// Rango admitido de nivel de servicio.
const (
	MinServiceLevel = 0.80
	MaxServiceLevel = 0.99
)

// zTable nivel de servicio → factor z, interpolado linealmente entre puntos.
var zTable = []struct{ level, z float64 }{
	{0.80, 0.84},
	{0.85, 1.04},
	{0.90, 1.28},
	{0.95, 1.65},
	{0.975, 1.96},
	{0.99, 2.33},
}

// Input parámetros del modelo.
type Input struct {
	DemandAnnual float64
	OrderCost    float64
	HoldingCost  float64 // por unidad y año
	LeadTimeDays float64
	ServiceLevel float64
	DemandStdDev float64 // desviación estándar de la demanda diaria
}

// Output resultado sin redondear.
type Output struct {
	EOQ                float64
	DemandDaily        float64
	Z                  float64
	SafetyStock        float64
	ROP                float64
	OrdersPerYear      float64
	DaysBetweenOrders  float64
	OrderingCostAnnual float64
	HoldingCostAnnual  float64
	TotalCostAnnual    float64
}

// ServiceLevelToZ traduce un nivel de servicio a z usando la tabla fija.
func ServiceLevelToZ(level float64) (float64, error) {
	if math.IsNaN(level) || level < MinServiceLevel || level > MaxServiceLevel {
		return 0, domain.ErrInvalidInput
	}
	for i := 1; i < len(zTable); i++ {
		lo, hi := zTable[i-1], zTable[i]
		if level <= hi.level {
			frac := (level - lo.level) / (hi.level - lo.level)
			return lo.z + frac*(hi.z-lo.z), nil
		}
	}
	return zTable[len(zTable)-1].z, nil
}

// EOQ sqrt(2·D·S/H). Falla si D o S no son positivos o H <= 0.
func EOQ(demandAnnual, orderCost, holdingCost float64) (float64, error) {
	if !(demandAnnual > 0) || !(orderCost > 0) || !(holdingCost > 0) {
		return 0, domain.ErrInvalidParameters
	}
	return math.Sqrt(2 * demandAnnual * orderCost / holdingCost), nil
}

// SafetyStock z·σ·sqrt(L).
func SafetyStock(z, demandStdDev, leadTimeDays float64) float64 {
	return z * demandStdDev * math.Sqrt(leadTimeDays)
}

// ReorderPoint demanda diaria · L + stock de seguridad.
func ReorderPoint(demandDaily, leadTimeDays, safetyStock float64) float64 {
	return demandDaily*leadTimeDays + safetyStock
}

// Calculate ejecuta el modelo completo.
func Calculate(in Input) (Output, error) {
	if in.LeadTimeDays < 0 || in.DemandStdDev < 0 || math.IsNaN(in.LeadTimeDays) || math.IsNaN(in.DemandStdDev) {
		return Output{}, domain.ErrInvalidInput
	}
	eoq, err := EOQ(in.DemandAnnual, in.OrderCost, in.HoldingCost)
	if err != nil {
		return Output{}, err
	}
	z, err := ServiceLevelToZ(in.ServiceLevel)
	if err != nil {
		return Output{}, err
	}
	out := Output{EOQ: eoq, Z: z}
	out.DemandDaily = in.DemandAnnual / DaysPerYear
	out.SafetyStock = SafetyStock(z, in.DemandStdDev, in.LeadTimeDays)
	out.ROP = ReorderPoint(out.DemandDaily, in.LeadTimeDays, out.SafetyStock)
	out.OrdersPerYear = in.DemandAnnual / eoq
	out.DaysBetweenOrders = DaysPerYear / out.OrdersPerYear
	out.OrderingCostAnnual = out.OrdersPerYear * in.OrderCost
	out.HoldingCostAnnual = eoq / 2 * in.HoldingCost
	out.TotalCostAnnual = out.OrderingCostAnnual + out.HoldingCostAnnual
	return out, nil
}
