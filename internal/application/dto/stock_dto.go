package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// StockLevelResponse salida de la proyección de stock.
type StockLevelResponse struct {
	ProductID         string          `json:"product_id"`
	Available         int64           `json:"available"`
	Reserved          int64           `json:"reserved"`
	InTransit         int64           `json:"in_transit"`
	Minimum           int64           `json:"minimum"`
	Maximum           int64           `json:"maximum"`
	ReorderPoint      int64           `json:"reorder_point"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	Status            string          `json:"status"`
	LastMovementAt    *time.Time      `json:"last_movement_at,omitempty"`
	LastSaleAt        *time.Time      `json:"last_sale_at,omitempty"`
	DaysSinceLastSale *int            `json:"days_since_last_sale,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// StockListResponse lista paginada de proyecciones.
type StockListResponse struct {
	Items []StockLevelResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// ThresholdsRequest body para PUT /api/stock/{product_id}/thresholds.
type ThresholdsRequest struct {
	Minimum      int64 `json:"minimum" validate:"min=0"`
	Maximum      int64 `json:"maximum" validate:"min=0"`
	ReorderPoint int64 `json:"reorder_point" validate:"min=0"`
}

// ReconcileResponse resultado de auditar un producto.
type ReconcileResponse struct {
	ProductID      string    `json:"product_id"`
	Cached         int64     `json:"cached"`
	Recomputed     int64     `json:"recomputed"`
	LedgerSnapshot int64     `json:"ledger_snapshot"`
	Consistent     bool      `json:"consistent"`
	CheckedAt      time.Time `json:"checked_at"`
}

// ToStockLevelResponse convierte la proyección; now alimenta DaysSinceLastSale.
func ToStockLevelResponse(s *entity.StockLevel, now time.Time) StockLevelResponse {
	out := StockLevelResponse{
		ProductID:      s.ProductID,
		Available:      s.Available,
		Reserved:       s.Reserved,
		InTransit:      s.InTransit,
		Minimum:        s.Minimum,
		Maximum:        s.Maximum,
		ReorderPoint:   s.ReorderPoint,
		AverageCost:    s.AverageCost.Round(4),
		Status:         s.Status,
		LastMovementAt: s.LastMovementAt,
		LastSaleAt:     s.LastSaleAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if d := s.DaysSinceLastSale(now); d >= 0 {
		out.DaysSinceLastSale = &d
	}
	return out
}

// ToReconcileResponse convierte el reporte de conciliación.
func ToReconcileResponse(r ports.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{
		ProductID:      r.ProductID,
		Cached:         r.Cached,
		Recomputed:     r.Recomputed,
		LedgerSnapshot: r.LedgerSnapshot,
		Consistent:     r.Consistent,
		CheckedAt:      r.CheckedAt,
	}
}
