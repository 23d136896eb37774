package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// AppendMovementRequest body para POST /api/kardex/movements.
type AppendMovementRequest struct {
	ProductID      string           `json:"product_id" validate:"required"`
	Kind           string           `json:"kind" validate:"required"`    // ENTRY | EXIT | ADJUSTMENT
	Subtype        string           `json:"subtype" validate:"required"` // PURCHASE, SALE, ... o POSITIVE/NEGATIVE
	Quantity       int64            `json:"quantity" validate:"min=1"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	DocumentNumber string           `json:"document_number,omitempty"`
	SupplierID     string           `json:"supplier_id,omitempty"`
	Lot            string           `json:"lot,omitempty"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

// CompensateRequest body para anular o restaurar un movimiento.
type CompensateRequest struct {
	Reason string `json:"reason"`
}

// MovementResponse salida de una fila del kardex.
type MovementResponse struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Kind           string           `json:"kind"`
	Subtype        string           `json:"subtype"`
	Quantity       int64            `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	RunningBalance int64            `json:"running_balance"`
	DocumentNumber string           `json:"document_number,omitempty"`
	SupplierID     string           `json:"supplier_id,omitempty"`
	UserID         string           `json:"user_id,omitempty"`
	Lot            string           `json:"lot,omitempty"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	ReversalOf     string           `json:"reversal_of,omitempty"`
	Voided         bool             `json:"voided"`
	Notes          string           `json:"notes,omitempty"`
}

// MovementListResponse kardex de un producto.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceResponse saldo actual según el kardex.
type BalanceResponse struct {
	ProductID string `json:"product_id"`
	Balance   int64  `json:"balance"`
}

// ToMovementResponse convierte la entidad en la salida HTTP.
func ToMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Timestamp:      m.Timestamp,
		Kind:           m.Kind,
		Subtype:        m.Subtype,
		Quantity:       m.Quantity,
		UnitCost:       m.UnitCost,
		RunningBalance: m.RunningBalance,
		DocumentNumber: m.DocumentNumber,
		SupplierID:     m.SupplierID,
		UserID:         m.UserID,
		Lot:            m.Lot,
		ExpiresAt:      m.ExpiresAt,
		ReversalOf:     m.ReversalOf,
		Voided:         m.Voided,
		Notes:          m.Notes,
	}
}
