package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, seq, product_id, ts, kind, subtype, quantity, unit_cost, running_balance,
	document_number, supplier_id, user_id, lot, expires_at, reversal_of, voided, notes, idempotency_key`

// MovementRepo kardex sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste una fila; seq lo asigna la secuencia de la tabla.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO kardex_movements (id, product_id, ts, kind, subtype, quantity, unit_cost, running_balance,
			document_number, supplier_id, user_id, lot, expires_at, reversal_of, voided, notes, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Timestamp, m.Kind, m.Subtype, m.Quantity, m.UnitCost, m.RunningBalance,
		m.DocumentNumber, m.SupplierID, m.UserID, m.Lot, m.ExpiresAt, m.ReversalOf, m.Voided, m.Notes, m.IdempotencyKey,
	).Scan(&m.Sequence)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create movement: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.Sequence, &m.ProductID, &m.Timestamp, &m.Kind, &m.Subtype, &m.Quantity, &m.UnitCost,
		&m.RunningBalance, &m.DocumentNumber, &m.SupplierID, &m.UserID, &m.Lot, &m.ExpiresAt,
		&m.ReversalOf, &m.Voided, &m.Notes, &m.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM kardex_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetByIdempotencyKey obtiene la fila registrada con la clave; nil si no existe o la clave es vacía.
func (r *MovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Movement, error) {
	if key == "" {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + ` FROM kardex_movements WHERE idempotency_key = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by key: %w", err)
	}
	return m, nil
}

// SetVoided único UPDATE permitido sobre el kardex; nunca toca compensaciones.
func (r *MovementRepo) SetVoided(ctx context.Context, id string, voided bool) error {
	query := `UPDATE kardex_movements SET voided = $2 WHERE id = $1 AND reversal_of = ''`
	tag, err := r.q.Exec(ctx, query, id, voided)
	if err != nil {
		return fmt.Errorf("set voided: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Latest última fila del producto por orden de inserción.
func (r *MovementRepo) Latest(ctx context.Context, productID string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM kardex_movements
		WHERE product_id = $1 ORDER BY seq DESC LIMIT 1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista el kardex de un producto en orden de inserción.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM kardex_movements WHERE product_id = $1`
	args := []any{productID}
	pos := 2
	if !f.IncludeCompensations {
		query += " AND reversal_of = ''"
	}
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, f.Kind)
		pos++
	}
	if f.Subtype != "" {
		query += fmt.Sprintf(" AND subtype = $%d", pos)
		args = append(args, f.Subtype)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND ts >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND ts <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
