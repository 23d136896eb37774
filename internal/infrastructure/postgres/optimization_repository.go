package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.OptimizationRepository = (*OptimizationRepo)(nil)

const optimizationColumns = `id, product_id, created_at, demand_annual, eoq, rop, safety_stock, z,
	ordering_cost_annual, holding_cost_annual, total_cost_annual, orders_per_year, days_between_orders,
	order_cost, holding_cost, unit_cost, lead_time_days, service_level, demand_std_dev`

// OptimizationRepo historial de optimizaciones (solo INSERT).
type OptimizationRepo struct {
	q Querier
}

// NewOptimizationRepository construye el adaptador.
func NewOptimizationRepository(q Querier) *OptimizationRepo {
	return &OptimizationRepo{q: q}
}

func scanOptimization(row pgx.Row) (*entity.OptimizationResult, error) {
	var o entity.OptimizationResult
	err := row.Scan(
		&o.ID, &o.ProductID, &o.CreatedAt, &o.DemandAnnual, &o.EOQ, &o.ROP, &o.SafetyStock, &o.Z,
		&o.OrderingCostAnnual, &o.HoldingCostAnnual, &o.TotalCostAnnual, &o.OrdersPerYear, &o.DaysBetweenOrders,
		&o.Params.OrderCost, &o.Params.HoldingCost, &o.Params.UnitCost, &o.Params.LeadTimeDays,
		&o.Params.ServiceLevel, &o.Params.DemandStdDev,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OptimizationRepo) Create(ctx context.Context, o *entity.OptimizationResult) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	query := `
		INSERT INTO optimization_results (` + optimizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.ProductID, o.CreatedAt, o.DemandAnnual, o.EOQ, o.ROP, o.SafetyStock, o.Z,
		o.OrderingCostAnnual, o.HoldingCostAnnual, o.TotalCostAnnual, o.OrdersPerYear, o.DaysBetweenOrders,
		o.Params.OrderCost, o.Params.HoldingCost, o.Params.UnitCost, o.Params.LeadTimeDays,
		o.Params.ServiceLevel, o.Params.DemandStdDev,
	)
	if err != nil {
		return fmt.Errorf("create optimization result: %w", err)
	}
	return nil
}

// Latest último resultado del producto; nil si nunca se optimizó.
func (r *OptimizationRepo) Latest(ctx context.Context, productID string) (*entity.OptimizationResult, error) {
	query := `SELECT ` + optimizationColumns + ` FROM optimization_results
		WHERE product_id = $1 ORDER BY seq DESC LIMIT 1`
	o, err := scanOptimization(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest optimization result: %w", err)
	}
	return o, nil
}

func (r *OptimizationRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.OptimizationResult, error) {
	query := `SELECT ` + optimizationColumns + ` FROM optimization_results
		WHERE product_id = $1 ORDER BY seq DESC`
	args := []any{productID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list optimization results: %w", err)
	}
	defer rows.Close()
	var list []*entity.OptimizationResult
	for rows.Next() {
		o, err := scanOptimization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan optimization result: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}
