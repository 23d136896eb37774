// Package storage abre el backend de repositorios elegido con STORAGE_DRIVER.
package storage

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// CatalogRepository catálogo de productos usable por HTTP y por el optimizador.
type CatalogRepository interface {
	repository.ProductRepository
	ports.ProductCatalog
}

// Storage repositorios de un mismo backend.
type Storage struct {
	TxRunner    inventory.TxRunner
	Movements   repository.MovementRepository
	StockLevels repository.StockLevelRepository
	Alerts      repository.AlertRepository
	Results     repository.OptimizationRepository
	Products    CatalogRepository
	Close       func()
}

// Open construye los repositorios del driver configurado. En postgres aplica el esquema
// si DB_AUTO_MIGRATE está activo.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store, err := memory.NewStore()
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return NewMemory(store), nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Storage{
		TxRunner:    postgres.NewTxRunner(pool, cfg.Inventory.LockTimeout),
		Movements:   postgres.NewMovementRepository(pool),
		StockLevels: postgres.NewStockLevelRepository(pool),
		Alerts:      postgres.NewAlertRepository(pool),
		Results:     postgres.NewOptimizationRepository(pool),
		Products:    postgres.NewProductRepository(pool),
		Close:       pool.Close,
	}, nil
}

// NewMemory arma el backend en memoria sobre store (también usado por los tests).
func NewMemory(store *memory.Store) *Storage {
	return &Storage{
		TxRunner:    memory.NewTxRunner(store),
		Movements:   memory.NewMovementRepository(store),
		StockLevels: memory.NewStockLevelRepository(store),
		Alerts:      memory.NewAlertRepository(store),
		Results:     memory.NewOptimizationRepository(store),
		Products:    memory.NewProductRepository(store),
		Close:       func() {},
	}
}
