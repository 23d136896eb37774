package inventory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/kardex-api/internal/application/ports"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// reconcileConcurrency productos auditados en paralelo por ReconcileAll.
const reconcileConcurrency = 8

// Projection mantiene la vista StockLevel consistente con el kardex.
// Las escrituras ocurren siempre dentro de la transacción del Ledger (ApplyDelta)
// o bajo el lock del producto (SetThresholds).
type Projection struct {
	txRunner  TxRunner
	locker    Locker
	stockRepo repository.StockLevelRepository
	status    inventory.StatusCalculator
	reporter  ports.IntegrityReporter
	observer  StockObserver
	log       *logger.Logger
	now       func() time.Time
}

// NewProjection construye la proyección de stock.
func NewProjection(
	txRunner TxRunner,
	locker Locker,
	stockRepo repository.StockLevelRepository,
	status inventory.StatusCalculator,
	reporter ports.IntegrityReporter,
	log *logger.Logger,
) *Projection {
	return &Projection{
		txRunner:  txRunner,
		locker:    locker,
		stockRepo: stockRepo,
		status:    status,
		reporter:  reporter,
		log:       log,
		now:       time.Now,
	}
}

// SetObserver registra el motor de alertas (se resuelve después para evitar dependencias circulares).
func (p *Projection) SetObserver(o StockObserver) { p.observer = o }

// SetClock reemplaza el reloj (tests).
func (p *Projection) SetClock(now func() time.Time) { p.now = now }

// Status expone el calculador de estado configurado.
func (p *Projection) Status() inventory.StatusCalculator { return p.status }

// ApplyDelta suma delta a Available, recalcula el estado y actualiza LastMovementAt.
// No valida reglas de negocio: un resultado negativo indica que el caller no rechazó
// la operación y se trata como violación de contrato (ErrInvariant).
func (p *Projection) ApplyDelta(level *entity.StockLevel, delta int64, at time.Time) error {
	next := level.Available + delta
	if next < 0 {
		return fmt.Errorf("%w: producto %s quedaría en %d", domain.ErrInvariant, level.ProductID, next)
	}
	level.Available = next
	level.Status = p.status.Status(next, inventory.ThresholdsOf(level))
	ts := at
	level.LastMovementAt = &ts
	level.UpdatedAt = at
	return nil
}

// applyMovement aplica una fila del kardex a la proyección: delta, costo promedio y última venta.
func (p *Projection) applyMovement(level *entity.StockLevel, m *entity.Movement) error {
	before := level.Available
	if err := p.ApplyDelta(level, m.Delta(), m.Timestamp); err != nil {
		return err
	}
	if !m.IsCompensation() && m.Increases() && m.UnitCost != nil {
		level.AverageCost = inventory.CostCalculator(before, level.AverageCost, m.Quantity, *m.UnitCost)
	}
	if m.IsSale() {
		ts := m.Timestamp
		level.LastSaleAt = &ts
	}
	return nil
}

// refreshLastSale recalcula LastSaleAt desde las ventas vigentes. Anular o restaurar una venta
// puede mover la fecha hacia atrás o hacia adelante. Corre dentro de la tx del Ledger.
func (p *Projection) refreshLastSale(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockLevelRepository,
	productID string,
) error {
	level, err := stockRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	sales, err := movRepo.ListByProduct(ctx, productID, repository.MovementFilter{
		Kind:    entity.MovementKindEXIT,
		Subtype: entity.ExitSale,
	})
	if err != nil {
		return err
	}
	var last *time.Time
	for _, s := range sales {
		if s.Voided || (last != nil && !s.Timestamp.After(*last)) {
			continue
		}
		ts := s.Timestamp
		last = &ts
	}
	level.LastSaleAt = last
	return stockRepo.Upsert(ctx, level)
}

// Get devuelve la proyección actual del producto.
func (p *Projection) Get(ctx context.Context, productID string) (*entity.StockLevel, error) {
	level, err := p.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, domain.ErrNotFound
	}
	return level, nil
}

// List lista proyecciones, opcionalmente filtradas por estado.
func (p *Projection) List(ctx context.Context, status string, limit, offset int) ([]*entity.StockLevel, error) {
	return p.stockRepo.List(ctx, status, limit, offset)
}

// ThresholdsInput umbrales a configurar para un producto.
type ThresholdsInput struct {
	Minimum      int64
	Maximum      int64
	ReorderPoint int64
}

// SetThresholds actualiza mínimo, máximo y punto de reorden bajo el lock del producto,
// recalcula el estado y reevalúa alertas.
func (p *Projection) SetThresholds(ctx context.Context, productID string, in ThresholdsInput) (*entity.StockLevel, error) {
	if productID == "" || in.Minimum < 0 || in.Maximum < 0 || in.ReorderPoint < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Maximum > 0 && in.Maximum < in.Minimum {
		return nil, domain.ErrInvalidInput
	}
	var updated *entity.StockLevel
	err := withLock(ctx, p.locker, productID, func() error {
		return p.txRunner.Run(ctx, func(_ repository.MovementRepository, stockRepo repository.StockLevelRepository) error {
			level, err := stockRepo.GetForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			level.Minimum = in.Minimum
			level.Maximum = in.Maximum
			level.ReorderPoint = in.ReorderPoint
			level.Status = p.status.Status(level.Available, inventory.ThresholdsOf(level))
			level.UpdatedAt = p.now()
			if err := stockRepo.Upsert(ctx, level); err != nil {
				return err
			}
			updated = level
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, productID)
	return updated, nil
}

// SetReorderPoint actualiza solo el punto de reorden (usado por el optimizador).
func (p *Projection) SetReorderPoint(ctx context.Context, productID string, reorderPoint int64) (*entity.StockLevel, error) {
	level, err := p.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	in := ThresholdsInput{ReorderPoint: reorderPoint}
	if level != nil {
		in.Minimum = level.Minimum
		in.Maximum = level.Maximum
	}
	return p.SetThresholds(ctx, productID, in)
}

// Reconcile recalcula Available desde los originales no anulados y lo compara con la
// proyección y con el saldo de la última fila. Las diferencias se registran y se reportan
// al canal operativo; nunca se corrigen en silencio.
//
// Ambas lecturas se hacen con el lock del producto y dentro de una misma transacción, de modo
// que un movimiento concurrente no puede quedar registrado en una y no en la otra.
func (p *Projection) Reconcile(ctx context.Context, productID string) (ports.ReconcileReport, error) {
	report := ports.ReconcileReport{ProductID: productID, CheckedAt: p.now()}

	var (
		level     *entity.StockLevel
		movements []*entity.Movement
	)
	err := withLock(ctx, p.locker, productID, func() error {
		return p.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockLevelRepository) error {
			var err error
			level, err = stockRepo.Get(ctx, productID)
			if err != nil {
				return err
			}
			if level != nil {
				// La fila ya existe: FOR UPDATE solo la bloquea, no siembra nada.
				if level, err = stockRepo.GetForUpdate(ctx, productID); err != nil {
					return err
				}
			}
			movements, err = movRepo.ListByProduct(ctx, productID, repository.MovementFilter{IncludeCompensations: true})
			return err
		})
	})
	if err != nil {
		return report, err
	}
	if level == nil && len(movements) == 0 {
		return report, domain.ErrNotFound
	}
	if level != nil {
		report.Cached = level.Available
	}
	report.Recomputed = inventory.BalanceFromOriginals(movements)
	if n := len(movements); n > 0 {
		report.LedgerSnapshot = movements[n-1].RunningBalance
	}
	report.Consistent = report.Cached == report.Recomputed && report.LedgerSnapshot == report.Recomputed

	if !report.Consistent {
		p.log.Error().
			Str("product_id", productID).
			Int64("cached", report.Cached).
			Int64("recomputed", report.Recomputed).
			Int64("ledger_snapshot", report.LedgerSnapshot).
			Msg("inconsistencia entre kardex y proyección de stock")
		if p.reporter != nil {
			p.reporter.Report(ctx, report)
		}
	}
	return report, nil
}

// ReconcileAll audita todos los productos con concurrencia acotada.
// Devuelve solo los reportes inconsistentes; un error de lectura aborta la auditoría.
func (p *Projection) ReconcileAll(ctx context.Context) ([]ports.ReconcileReport, error) {
	ids, err := p.stockRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]ports.ReconcileReport, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			r, err := p.Reconcile(gctx, id)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", id, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bad := make([]ports.ReconcileReport, 0)
	for _, r := range reports {
		if !r.Consistent {
			bad = append(bad, r)
		}
	}
	p.log.Info().Int("products", len(ids)).Int("inconsistent", len(bad)).Msg("auditoría de stock completada")
	return bad, nil
}

// RunAuditor ejecuta ReconcileAll cada interval hasta que ctx se cancele.
func (p *Projection) RunAuditor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.ReconcileAll(ctx); err != nil {
				p.log.Error().Err(err).Msg("auditoría de stock")
			}
		}
	}
}

func (p *Projection) notify(ctx context.Context, productID string) {
	if p.observer == nil {
		return
	}
	if err := p.observer.EvaluateProduct(ctx, productID); err != nil {
		p.log.Warn().Err(err).Str("product_id", productID).Msg("evaluación de alertas")
	}
}
