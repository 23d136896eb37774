package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// OptimizationRepository resultados EOQ/ROP, solo inserción.
type OptimizationRepository interface {
	Create(ctx context.Context, result *entity.OptimizationResult) error
	Latest(ctx context.Context, productID string) (*entity.OptimizationResult, error)
	ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.OptimizationResult, error)
}
