package inventory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza que la fila del kardex y la proyección de stock se confirmen juntas o ninguna.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockLevelRepository,
	) error) error
}

// Locker serializa las mutaciones de un mismo producto con espera acotada.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// withLock ejecuta fn con el lock de key tomado y lo suelta al volver.
func withLock(ctx context.Context, locker Locker, key string, fn func() error) error {
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// StockObserver se invoca tras cada commit que cambia el stock de un producto (motor de alertas),
// con el lock del producto ya liberado.
type StockObserver interface {
	EvaluateProduct(ctx context.Context, productID string) error
}
