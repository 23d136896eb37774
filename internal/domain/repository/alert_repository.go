package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// AlertFilter filtros de listado de alertas.
type AlertFilter struct {
	ProductID string
	Type      string
	State     string
	Limit     int
	Offset    int
}

// AlertRepository define el puerto de persistencia de alertas.
type AlertRepository interface {
	// Create devuelve domain.ErrDuplicateAlert si ya hay una PENDING para (producto, tipo).
	Create(ctx context.Context, alert *entity.Alert) error
	Update(ctx context.Context, alert *entity.Alert) error
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	FindPending(ctx context.Context, productID, alertType string) (*entity.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]*entity.Alert, error)
}
