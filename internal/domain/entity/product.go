package entity

import "github.com/shopspring/decimal"

// Product vista del catálogo que necesita el motor de reorden.
type Product struct {
	ID                  string
	SKU                 string
	Name                string
	UnitCost            decimal.Decimal
	LeadTimeDays        int
	PreferredSupplierID string
	OrderCost           *decimal.Decimal // costo por pedido; nil = default de configuración
	HoldingRate         *decimal.Decimal // fracción anual del costo unitario; nil = default
}
