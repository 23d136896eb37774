package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clases de movimiento del kardex.
const (
	MovementKindENTRY         = "ENTRY"         // entrada
	MovementKindEXIT          = "EXIT"          // salida
	MovementKindADJUSTMENT    = "ADJUSTMENT"    // ajuste con signo explícito
	MovementKindREVERSAL      = "REVERSAL"      // compensación de una anulación
	MovementKindREINSTATEMENT = "REINSTATEMENT" // compensación de una restauración
)

// Subtipos de entrada.
const (
	EntryPurchase       = "PURCHASE"
	EntryCustomerReturn = "CUSTOMER_RETURN"
	EntryTransferIn     = "TRANSFER_IN"
	EntryInitial        = "INITIAL"
	EntryProduction     = "PRODUCTION"
)

// Subtipos de salida.
const (
	ExitSale           = "SALE"
	ExitSupplierReturn = "SUPPLIER_RETURN"
	ExitTransferOut    = "TRANSFER_OUT"
	ExitShrinkage      = "SHRINKAGE"
	ExitExpired        = "EXPIRED"
	ExitInternalUse    = "INTERNAL_USE"
)

// Signo de un ajuste.
const (
	AdjustmentPositive = "POSITIVE"
	AdjustmentNegative = "NEGATIVE"
)

var entrySubtypes = map[string]bool{
	EntryPurchase: true, EntryCustomerReturn: true, EntryTransferIn: true,
	EntryInitial: true, EntryProduction: true,
}

var exitSubtypes = map[string]bool{
	ExitSale: true, ExitSupplierReturn: true, ExitTransferOut: true,
	ExitShrinkage: true, ExitExpired: true, ExitInternalUse: true,
}

// Movement es una fila del kardex. Solo Voided cambia después de insertada, y solo en filas originales.
type Movement struct {
	ID             string
	Sequence       int64 // orden de inserción asignado por el repositorio
	ProductID      string
	Timestamp      time.Time
	Kind           string
	Subtype        string // subtipo de ENTRY/EXIT o signo de ADJUSTMENT; en compensaciones, el signo aplicado
	Quantity       int64  // siempre positivo
	UnitCost       *decimal.Decimal
	RunningBalance int64
	DocumentNumber string
	SupplierID     string
	UserID         string
	Lot            string
	ExpiresAt      *time.Time
	ReversalOf     string // ID del movimiento compensado (REVERSAL/REINSTATEMENT)
	Voided         bool
	Notes          string
	IdempotencyKey string // clave del origen externo (evento, línea de archivo); vacía si no aplica
}

// ValidMovementType indica si kind/subtype resuelven exactamente a entrada, salida o ajuste con signo.
// Las compensaciones no se aceptan desde el exterior.
func ValidMovementType(kind, subtype string) bool {
	switch kind {
	case MovementKindENTRY:
		return entrySubtypes[subtype]
	case MovementKindEXIT:
		return exitSubtypes[subtype]
	case MovementKindADJUSTMENT:
		return subtype == AdjustmentPositive || subtype == AdjustmentNegative
	}
	return false
}

// IsCompensation indica si la fila es una REVERSAL o REINSTATEMENT.
func (m *Movement) IsCompensation() bool {
	return m.Kind == MovementKindREVERSAL || m.Kind == MovementKindREINSTATEMENT
}

// Increases indica si el movimiento suma al saldo.
func (m *Movement) Increases() bool {
	switch m.Kind {
	case MovementKindENTRY:
		return true
	case MovementKindEXIT:
		return false
	default:
		return m.Subtype == AdjustmentPositive
	}
}

// Delta devuelve el efecto con signo del movimiento sobre el saldo.
func (m *Movement) Delta() int64 {
	if m.Increases() {
		return m.Quantity
	}
	return -m.Quantity
}

// IsSale indica si la salida corresponde a una venta (alimenta días sin venta y el pronóstico histórico).
func (m *Movement) IsSale() bool {
	return m.Kind == MovementKindEXIT && m.Subtype == ExitSale
}
