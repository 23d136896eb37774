package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// StockLevelRepository define el puerto para la proyección de stock por producto.
// Usado dentro de transacciones para garantizar consistencia con el kardex.
type StockLevelRepository interface {
	// Get devuelve nil, nil si el producto nunca tuvo movimientos ni umbrales.
	Get(ctx context.Context, productID string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); si no existe devuelve un nivel en cero.
	GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	List(ctx context.Context, status string, limit, offset int) ([]*entity.StockLevel, error)
	ListProductIDs(ctx context.Context) ([]string, error)
}
