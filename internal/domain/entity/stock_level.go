package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock.
const (
	StockStatusNORMAL   = "NORMAL"
	StockStatusLOW      = "LOW"
	StockStatusCRITICAL = "CRITICAL"
	StockStatusEXCESS   = "EXCESS"
	StockStatusDEPLETED = "DEPLETED"
)

// ValidStockStatus indica si s es uno de los estados conocidos.
func ValidStockStatus(s string) bool {
	switch s {
	case StockStatusNORMAL, StockStatusLOW, StockStatusCRITICAL, StockStatusEXCESS, StockStatusDEPLETED:
		return true
	}
	return false
}

// StockLevel es la proyección actual del kardex para un producto (fila materializada).
type StockLevel struct {
	ProductID      string
	Available      int64
	Reserved       int64
	InTransit      int64
	Minimum        int64
	Maximum        int64 // 0 = sin máximo
	ReorderPoint   int64
	AverageCost    decimal.Decimal
	Status         string
	LastMovementAt *time.Time
	LastSaleAt     *time.Time
	UpdatedAt      time.Time
}

// DaysSinceLastSale días completos desde la última venta; -1 si nunca hubo ventas.
func (s *StockLevel) DaysSinceLastSale(now time.Time) int {
	if s.LastSaleAt == nil {
		return -1
	}
	return int(now.Sub(*s.LastSaleAt).Hours() / 24)
}
