package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

const stockColumns = `product_id, available, reserved, in_transit, minimum, maximum, reorder_point,
	average_cost, status, last_movement_at, last_sale_at, updated_at`

// StockLevelRepo proyección de stock sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.StockLevel, error) {
	var s entity.StockLevel
	err := row.Scan(
		&s.ProductID, &s.Available, &s.Reserved, &s.InTransit, &s.Minimum, &s.Maximum, &s.ReorderPoint,
		&s.AverageCost, &s.Status, &s.LastMovementAt, &s.LastSaleAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene la proyección del producto; nil si no existe.
func (r *StockLevelRepo) Get(ctx context.Context, productID string) (*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE product_id = $1`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return s, nil
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Si el producto no tiene fila se inserta
// una en cero (ON CONFLICT DO NOTHING) para que el bloqueo exista también en el primer movimiento.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (product_id, status, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, entity.StockStatusDEPLETED); err != nil {
		return nil, fmt.Errorf("seed stock level: %w", err)
	}
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE product_id = $1 FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o reemplaza la proyección del producto.
func (r *StockLevelRepo) Upsert(ctx context.Context, s *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (product_id) DO UPDATE SET
			available = EXCLUDED.available,
			reserved = EXCLUDED.reserved,
			in_transit = EXCLUDED.in_transit,
			minimum = EXCLUDED.minimum,
			maximum = EXCLUDED.maximum,
			reorder_point = EXCLUDED.reorder_point,
			average_cost = EXCLUDED.average_cost,
			status = EXCLUDED.status,
			last_movement_at = EXCLUDED.last_movement_at,
			last_sale_at = EXCLUDED.last_sale_at,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.ProductID, s.Available, s.Reserved, s.InTransit, s.Minimum, s.Maximum, s.ReorderPoint,
		s.AverageCost, s.Status, s.LastMovementAt, s.LastSaleAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// List lista proyecciones, opcionalmente por estado.
func (r *StockLevelRepo) List(ctx context.Context, status string, limit, offset int) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels`
	args := []any{}
	pos := 1
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
		pos++
	}
	query += " ORDER BY product_id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, limit, offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListProductIDs todos los productos con proyección (para la auditoría).
func (r *StockLevelRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT product_id FROM stock_levels ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
