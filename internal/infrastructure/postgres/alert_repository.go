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

var _ repository.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `id, product_id, type, severity, state, message, created_at, updated_at, resolved_at,
	assigned_user_id, action_taken, note, suggested_quantity`

// AlertRepo implementa AlertRepository con pgx. La unicidad de PENDING por (producto, tipo)
// la garantiza el índice parcial uq_alerts_pending.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador.
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var a entity.Alert
	err := row.Scan(
		&a.ID, &a.ProductID, &a.Type, &a.Severity, &a.State, &a.Message, &a.CreatedAt, &a.UpdatedAt,
		&a.ResolvedAt, &a.AssignedUserID, &a.ActionTaken, &a.Note, &a.SuggestedQuantity,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserta la alerta; ErrDuplicateAlert si ya hay una PENDING del mismo tipo.
func (r *AlertRepo) Create(ctx context.Context, a *entity.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.ProductID, a.Type, a.Severity, a.State, a.Message, a.CreatedAt, a.UpdatedAt,
		a.ResolvedAt, a.AssignedUserID, a.ActionTaken, a.Note, a.SuggestedQuantity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAlert
		}
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Update reescribe los campos mutables de la alerta.
func (r *AlertRepo) Update(ctx context.Context, a *entity.Alert) error {
	query := `
		UPDATE alerts SET severity = $2, state = $3, message = $4, updated_at = $5, resolved_at = $6,
			assigned_user_id = $7, action_taken = $8, note = $9, suggested_quantity = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		a.ID, a.Severity, a.State, a.Message, a.UpdatedAt, a.ResolvedAt,
		a.AssignedUserID, a.ActionTaken, a.Note, a.SuggestedQuantity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAlert
		}
		return fmt.Errorf("update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una alerta por ID; nil si no existe.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// FindPending alerta PENDING del producto para el tipo; nil si no hay.
func (r *AlertRepo) FindPending(ctx context.Context, productID, alertType string) (*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE product_id = $1 AND type = $2 AND state = $3`
	a, err := scanAlert(r.q.QueryRow(ctx, query, productID, alertType, entity.AlertStatePENDING))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending alert: %w", err)
	}
	return a, nil
}

// List lista alertas filtradas, las más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	args := []any{}
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.State != "" {
		query += fmt.Sprintf(" AND state = $%d", pos)
		args = append(args, f.State)
		pos++
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
