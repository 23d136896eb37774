// Package memory implementa los repositorios sobre go-memdb (tablas en memoria con transacciones
// MVCC). Se usa con STORAGE_DRIVER=memory y en los tests de los casos de uso.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

const (
	tableMovements    = "movements"
	tableStockLevels  = "stock_levels"
	tableAlerts       = "alerts"
	tableOptimization = "optimization_results"
	tableProducts     = "products"
)

func schema() *memdb.DBSchema {
	id := func(field string) *memdb.IndexSchema {
		return &memdb.IndexSchema{Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: field}}
	}
	byProduct := &memdb.IndexSchema{Name: "product", Indexer: &memdb.StringFieldIndex{Field: "ProductID"}}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableMovements: {
				Name: tableMovements,
				Indexes: map[string]*memdb.IndexSchema{
					"id":      id("ID"),
					"product": byProduct,
					"idempotency": {
						Name:         "idempotency",
						Unique:       true,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "IdempotencyKey"},
					},
				},
			},
			tableStockLevels: {
				Name: tableStockLevels,
				Indexes: map[string]*memdb.IndexSchema{
					"id":     id("ProductID"),
					"status": {Name: "status", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "Status"}},
				},
			},
			tableAlerts: {
				Name: tableAlerts,
				Indexes: map[string]*memdb.IndexSchema{
					"id": id("ID"),
					"product_type": {
						Name: "product_type",
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "ProductID"},
							&memdb.StringFieldIndex{Field: "Type"},
						}},
					},
				},
			},
			tableOptimization: {
				Name: tableOptimization,
				Indexes: map[string]*memdb.IndexSchema{
					"id":      id("ID"),
					"product": byProduct,
				},
			},
			tableProducts: {
				Name: tableProducts,
				Indexes: map[string]*memdb.IndexSchema{
					"id": id("ID"),
				},
			},
		},
	}
}

// Store base de datos en memoria compartida por todos los repositorios.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Int64
}

// NewStore crea la base en memoria.
func NewStore() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("crear memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// nextSeq orden de inserción de movimientos.
func (s *Store) nextSeq() int64 { return s.seq.Add(1) }

// scope ejecuta lecturas/escrituras sobre la tx del TxRunner o, si no hay, sobre una propia.
type scope struct {
	store *Store
	txn   *memdb.Txn
}

func (s scope) read() *memdb.Txn {
	if s.txn != nil {
		return s.txn
	}
	return s.store.db.Txn(false)
}

func (s scope) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.store.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción de escritura de memdb.
// memdb admite un único escritor a la vez, por lo que las transacciones quedan serializadas.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run abre la tx, ejecuta fn con repos atados a ella y confirma solo si fn no falla.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockLevelRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	sc := scope{store: r.store, txn: txn}
	if err := fn(&MovementRepo{scope: sc}, &StockLevelRepo{scope: sc}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
