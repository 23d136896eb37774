package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrAlreadyVoided     = errors.New("el movimiento ya está anulado")
	ErrNotVoided         = errors.New("el movimiento no está anulado")
	ErrDuplicateAlert    = errors.New("ya existe una alerta pendiente del mismo tipo")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidParameters = errors.New("parámetros de optimización inválidos")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrInvariant         = errors.New("invariante de inventario violado")
	ErrUnauthorized      = errors.New("no autorizado")
)

// InsufficientStockError lleva el contexto necesario para que el caller actúe
// (saldo disponible y cantidad pedida). errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
