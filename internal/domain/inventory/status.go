package inventory

import (
	"math"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Thresholds umbrales de negocio de un producto.
type Thresholds struct {
	Minimum      int64
	Maximum      int64 // 0 = sin máximo
	ReorderPoint int64
}

// StatusCalculator deriva el estado de stock. CriticalFactor (k) escala el mínimo:
// un producto es CRITICAL cuando available < minimum·k.
type StatusCalculator struct {
	CriticalFactor float64
}

// NewStatusCalculator construye el calculador; k <= 0 se trata como 1.
func NewStatusCalculator(criticalFactor float64) StatusCalculator {
	if criticalFactor <= 0 {
		criticalFactor = 1
	}
	return StatusCalculator{CriticalFactor: criticalFactor}
}

// CriticalLevel umbral bajo el cual el stock es crítico.
func (c StatusCalculator) CriticalLevel(minimum int64) float64 {
	return float64(minimum) * c.CriticalFactor
}

// IsCritical available < minimum·k.
func (c StatusCalculator) IsCritical(available, minimum int64) bool {
	return float64(available) < c.CriticalLevel(minimum)
}

// Status es una función pura de (available, minimum, reorderPoint, maximum).
func (c StatusCalculator) Status(available int64, t Thresholds) string {
	switch {
	case available <= 0:
		return entity.StockStatusDEPLETED
	case c.IsCritical(available, t.Minimum):
		return entity.StockStatusCRITICAL
	case available <= t.ReorderPoint:
		return entity.StockStatusLOW
	case t.Maximum > 0 && available > t.Maximum:
		return entity.StockStatusEXCESS
	}
	return entity.StockStatusNORMAL
}

// ThresholdsOf extrae los umbrales de un StockLevel.
func ThresholdsOf(s *entity.StockLevel) Thresholds {
	return Thresholds{Minimum: s.Minimum, Maximum: s.Maximum, ReorderPoint: s.ReorderPoint}
}

// CeilQuantity redondea hacia arriba una cantidad calculada a unidades enteras.
func CeilQuantity(v float64) int64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Ceil(v))
}
