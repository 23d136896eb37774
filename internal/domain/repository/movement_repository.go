package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// MovementFilter filtros para listar el kardex de un producto.
type MovementFilter struct {
	From                 *time.Time
	To                   *time.Time
	Kind                 string // vacío = todos
	Subtype              string
	IncludeCompensations bool
	Limit                int // 0 = sin límite
	Offset               int
}

// MovementRepository define el puerto de persistencia del kardex (append-only salvo el flag Voided).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// GetByIdempotencyKey devuelve la fila registrada con esa clave o nil.
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Movement, error)
	// SetVoided cambia el único campo mutable de una fila original.
	SetVoided(ctx context.Context, id string, voided bool) error
	// Latest devuelve la última fila del producto (incluye compensaciones) o nil si no hay.
	Latest(ctx context.Context, productID string) (*entity.Movement, error)
	// ListByProduct devuelve filas en orden cronológico ascendente.
	ListByProduct(ctx context.Context, productID string, filter MovementFilter) ([]*entity.Movement, error)
}
