package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// Los objetos guardados en memdb no deben mutarse: se insertan y devuelven copias.

var (
	_ repository.MovementRepository     = (*MovementRepo)(nil)
	_ repository.StockLevelRepository   = (*StockLevelRepo)(nil)
	_ repository.AlertRepository        = (*AlertRepo)(nil)
	_ repository.OptimizationRepository = (*OptimizationRepo)(nil)
	_ repository.ProductRepository      = (*ProductRepo)(nil)
)

// ── Movimientos ───────────────────────────────────────────────────────────────

// MovementRepo kardex en memoria.
type MovementRepo struct{ scope }

// NewMovementRepository repositorio fuera de transacción.
func NewMovementRepository(s *Store) *MovementRepo { return &MovementRepo{scope{store: s}} }

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(tableMovements, "id", m.ID)
		if err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("create movement: %w", domain.ErrConflict)
		}
		if m.IdempotencyKey != "" {
			dup, err := txn.First(tableMovements, "idempotency", m.IdempotencyKey)
			if err != nil {
				return fmt.Errorf("create movement: %w", err)
			}
			if dup != nil {
				return fmt.Errorf("create movement: %w", domain.ErrConflict)
			}
		}
		m.Sequence = r.store.nextSeq()
		cp := *m
		if err := txn.Insert(tableMovements, &cp); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	raw, err := r.read().First(tableMovements, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	cp := *raw.(*entity.Movement)
	return &cp, nil
}

func (r *MovementRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Movement, error) {
	if key == "" {
		return nil, nil
	}
	raw, err := r.read().First(tableMovements, "idempotency", key)
	if err != nil {
		return nil, fmt.Errorf("get movement by key: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	cp := *raw.(*entity.Movement)
	return &cp, nil
}

func (r *MovementRepo) SetVoided(_ context.Context, id string, voided bool) error {
	return r.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableMovements, "id", id)
		if err != nil {
			return fmt.Errorf("set voided: %w", err)
		}
		if raw == nil {
			return domain.ErrNotFound
		}
		cp := *raw.(*entity.Movement)
		cp.Voided = voided
		return txn.Insert(tableMovements, &cp)
	})
}

func (r *MovementRepo) byProduct(productID string) ([]*entity.Movement, error) {
	it, err := r.read().Get(tableMovements, "product", productID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	var list []*entity.Movement
	for raw := it.Next(); raw != nil; raw = it.Next() {
		cp := *raw.(*entity.Movement)
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Sequence < list[j].Sequence })
	return list, nil
}

func (r *MovementRepo) Latest(_ context.Context, productID string) (*entity.Movement, error) {
	list, err := r.byProduct(productID)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[len(list)-1], nil
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID string, f repository.MovementFilter) ([]*entity.Movement, error) {
	all, err := r.byProduct(productID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Movement, 0, len(all))
	for _, m := range all {
		if !f.IncludeCompensations && m.IsCompensation() {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.Subtype != "" && m.Subtype != f.Subtype {
			continue
		}
		if f.From != nil && m.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && m.Timestamp.After(*f.To) {
			continue
		}
		out = append(out, m)
	}
	return paginate(out, f.Limit, f.Offset), nil
}

// ── Proyección de stock ───────────────────────────────────────────────────────

// StockLevelRepo proyección en memoria.
type StockLevelRepo struct{ scope }

// NewStockLevelRepository repositorio fuera de transacción.
func NewStockLevelRepository(s *Store) *StockLevelRepo { return &StockLevelRepo{scope{store: s}} }

func (r *StockLevelRepo) Get(_ context.Context, productID string) (*entity.StockLevel, error) {
	raw, err := r.read().First(tableStockLevels, "id", productID)
	if err != nil {
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	cp := *raw.(*entity.StockLevel)
	return &cp, nil
}

// GetForUpdate en memoria el bloqueo lo da la tx de escritura única de memdb.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error) {
	level, err := r.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return &entity.StockLevel{ProductID: productID, Status: entity.StockStatusDEPLETED}, nil
	}
	return level, nil
}

func (r *StockLevelRepo) Upsert(_ context.Context, level *entity.StockLevel) error {
	return r.write(func(txn *memdb.Txn) error {
		cp := *level
		if err := txn.Insert(tableStockLevels, &cp); err != nil {
			return fmt.Errorf("upsert stock level: %w", err)
		}
		return nil
	})
}

func (r *StockLevelRepo) List(_ context.Context, status string, limit, offset int) ([]*entity.StockLevel, error) {
	var (
		it  memdb.ResultIterator
		err error
	)
	if status != "" {
		it, err = r.read().Get(tableStockLevels, "status", status)
	} else {
		it, err = r.read().Get(tableStockLevels, "id")
	}
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	var list []*entity.StockLevel
	for raw := it.Next(); raw != nil; raw = it.Next() {
		cp := *raw.(*entity.StockLevel)
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return paginate(list, limit, offset), nil
}

func (r *StockLevelRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	list, err := r.List(ctx, "", 0, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, l := range list {
		ids = append(ids, l.ProductID)
	}
	return ids, nil
}

// ── Alertas ───────────────────────────────────────────────────────────────────

// AlertRepo alertas en memoria.
type AlertRepo struct{ scope }

// NewAlertRepository construye el repositorio.
func NewAlertRepository(s *Store) *AlertRepo { return &AlertRepo{scope{store: s}} }

func pendingIn(txn *memdb.Txn, productID, alertType string) (*entity.Alert, error) {
	it, err := txn.Get(tableAlerts, "product_type", productID, alertType)
	if err != nil {
		return nil, err
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		a := raw.(*entity.Alert)
		if a.State == entity.AlertStatePENDING {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// Create verifica la unicidad de PENDING por (producto, tipo) dentro de la misma tx de escritura.
func (r *AlertRepo) Create(_ context.Context, a *entity.Alert) error {
	return r.write(func(txn *memdb.Txn) error {
		if a.State == entity.AlertStatePENDING {
			existing, err := pendingIn(txn, a.ProductID, a.Type)
			if err != nil {
				return fmt.Errorf("create alert: %w", err)
			}
			if existing != nil {
				return domain.ErrDuplicateAlert
			}
		}
		cp := *a
		if err := txn.Insert(tableAlerts, &cp); err != nil {
			return fmt.Errorf("create alert: %w", err)
		}
		return nil
	})
}

func (r *AlertRepo) Update(_ context.Context, a *entity.Alert) error {
	return r.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableAlerts, "id", a.ID)
		if err != nil {
			return fmt.Errorf("update alert: %w", err)
		}
		if raw == nil {
			return domain.ErrNotFound
		}
		cp := *a
		return txn.Insert(tableAlerts, &cp)
	})
}

func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	raw, err := r.read().First(tableAlerts, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	cp := *raw.(*entity.Alert)
	return &cp, nil
}

func (r *AlertRepo) FindPending(_ context.Context, productID, alertType string) (*entity.Alert, error) {
	a, err := pendingIn(r.read(), productID, alertType)
	if err != nil {
		return nil, fmt.Errorf("find pending alert: %w", err)
	}
	return a, nil
}

func (r *AlertRepo) List(_ context.Context, f repository.AlertFilter) ([]*entity.Alert, error) {
	it, err := r.read().Get(tableAlerts, "id")
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	var list []*entity.Alert
	for raw := it.Next(); raw != nil; raw = it.Next() {
		a := raw.(*entity.Alert)
		if (f.ProductID != "" && a.ProductID != f.ProductID) ||
			(f.Type != "" && a.Type != f.Type) ||
			(f.State != "" && a.State != f.State) {
			continue
		}
		cp := *a
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, f.Limit, f.Offset), nil
}

// ── Optimizaciones ────────────────────────────────────────────────────────────

// OptimizationRepo resultados EOQ/ROP en memoria.
type OptimizationRepo struct {
	scope
}

// NewOptimizationRepository construye el repositorio.
func NewOptimizationRepository(s *Store) *OptimizationRepo {
	return &OptimizationRepo{scope{store: s}}
}

type storedOptimization struct {
	entity.OptimizationResult
	Seq int64
}

func (r *OptimizationRepo) Create(_ context.Context, res *entity.OptimizationResult) error {
	return r.write(func(txn *memdb.Txn) error {
		row := &storedOptimization{OptimizationResult: *res, Seq: r.store.nextSeq()}
		if err := txn.Insert(tableOptimization, row); err != nil {
			return fmt.Errorf("create optimization result: %w", err)
		}
		return nil
	})
}

func (r *OptimizationRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*entity.OptimizationResult, error) {
	it, err := r.read().Get(tableOptimization, "product", productID)
	if err != nil {
		return nil, fmt.Errorf("list optimization results: %w", err)
	}
	var rows []*storedOptimization
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rows = append(rows, raw.(*storedOptimization))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq > rows[j].Seq })
	out := make([]*entity.OptimizationResult, 0, len(rows))
	for _, row := range rows {
		cp := row.OptimizationResult
		out = append(out, &cp)
	}
	return paginate(out, limit, 0), nil
}

func (r *OptimizationRepo) Latest(ctx context.Context, productID string) (*entity.OptimizationResult, error) {
	list, err := r.ListByProduct(ctx, productID, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// ── Catálogo ──────────────────────────────────────────────────────────────────

// ProductRepo catálogo en memoria; también implementa ports.ProductCatalog.
type ProductRepo struct{ scope }

// NewProductRepository construye el repositorio.
func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{scope{store: s}} }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	raw, err := r.read().First(tableProducts, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	cp := *raw.(*entity.Product)
	return &cp, nil
}

// GetProduct adapta GetByID al puerto ProductCatalog (ErrNotFound si no existe).
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

func (r *ProductRepo) Upsert(_ context.Context, p *entity.Product) error {
	if p.ID == "" {
		return domain.ErrInvalidInput
	}
	return r.write(func(txn *memdb.Txn) error {
		cp := *p
		if err := txn.Insert(tableProducts, &cp); err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}
		return nil
	})
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
