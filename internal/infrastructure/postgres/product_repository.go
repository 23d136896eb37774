package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ ports.ProductCatalog         = (*ProductRepo)(nil)
)

// ProductRepo catálogo mínimo de productos usado por el motor de reorden.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, sku, name, unit_cost, lead_time_days, preferred_supplier_id, order_cost, holding_rate
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.UnitCost, &p.LeadTimeDays, &p.PreferredSupplierID, &p.OrderCost, &p.HoldingRate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) Upsert(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, unit_cost, lead_time_days, preferred_supplier_id, order_cost, holding_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			unit_cost = EXCLUDED.unit_cost,
			lead_time_days = EXCLUDED.lead_time_days,
			preferred_supplier_id = EXCLUDED.preferred_supplier_id,
			order_cost = EXCLUDED.order_cost,
			holding_rate = EXCLUDED.holding_rate`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.UnitCost, p.LeadTimeDays, p.PreferredSupplierID, p.OrderCost, p.HoldingRate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("upsert product: sku duplicado: %w", domain.ErrConflict)
		}
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// GetProduct adapta GetByID al puerto ProductCatalog.
func (r *ProductRepo) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
