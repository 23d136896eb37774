// Package ports define los colaboradores externos del motor de inventario.
package ports

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// Forecast pronóstico de demanda entregado por el proveedor externo.
// DemandStdDev es la desviación estándar de la demanda diaria.
type Forecast struct {
	DemandAnnual float64
	DemandStdDev float64
}

// ForecastProvider señal opaca de demanda; el optimizador no cuestiona su precisión.
type ForecastProvider interface {
	GetDemandForecast(ctx context.Context, productID string, horizonDays int) (*Forecast, error)
}

// ProductCatalog resuelve costo, tiempo de entrega y proveedor preferido de un producto.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*entity.Product, error)
}

// PurchaseOrderRequest lo que recibe el generador de órdenes de compra.
type PurchaseOrderRequest struct {
	ProductID         string
	SKU               string
	ProductName       string
	SuggestedQuantity int64
	SupplierID        string
	UnitCost          float64
	Source            string // OPTIMIZATION | ALERT
	GeneratedAt       time.Time
}

// PurchaseOrderGenerator produce el documento de la orden; el formato no es asunto del motor.
type PurchaseOrderGenerator interface {
	Generate(ctx context.Context, req PurchaseOrderRequest) ([]byte, error)
}

// ReconcileReport resultado de auditar la proyección contra el kardex.
type ReconcileReport struct {
	ProductID      string
	Cached         int64 // Available en la proyección
	Recomputed     int64 // suma de originales no anulados
	LedgerSnapshot int64 // RunningBalance de la última fila
	Consistent     bool
	CheckedAt      time.Time
}

// IntegrityReporter canal operativo para inconsistencias detectadas de forma asíncrona.
type IntegrityReporter interface {
	Report(ctx context.Context, report ReconcileReport)
}
