package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// Ledger registra movimientos en el kardex de forma transaccional: bloqueo por producto,
// SELECT FOR UPDATE sobre la proyección y Commit/Rollback conjunto de kardex + stock.
type Ledger struct {
	txRunner   TxRunner
	locker     Locker
	movRepo    repository.MovementRepository
	projection *Projection
	log        *logger.Logger
	now        func() time.Time
}

// NewLedger construye el caso de uso del kardex.
func NewLedger(
	txRunner TxRunner,
	locker Locker,
	movRepo repository.MovementRepository,
	projection *Projection,
	log *logger.Logger,
) *Ledger {
	return &Ledger{
		txRunner:   txRunner,
		locker:     locker,
		movRepo:    movRepo,
		projection: projection,
		log:        log,
		now:        time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// AppendInput entrada para registrar un movimiento.
// Kind ENTRY/EXIT requieren Subtype conocido; ADJUSTMENT requiere Subtype POSITIVE o NEGATIVE.
type AppendInput struct {
	ProductID      string
	Kind           string
	Subtype        string
	Quantity       int64
	UnitCost       *decimal.Decimal
	DocumentNumber string
	SupplierID     string
	UserID         string
	Lot            string
	ExpiresAt      *time.Time
	Notes          string
	// IdempotencyKey identifica el origen externo. Si ya existe una fila con la misma clave,
	// Append la devuelve sin registrar otra.
	IdempotencyKey string
}

func (in AppendInput) validate() error {
	if in.ProductID == "" || in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	if !entity.ValidMovementType(in.Kind, in.Subtype) {
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	return nil
}

// Append valida y agrega un movimiento. Una salida que dejaría el saldo negativo falla con
// *domain.InsufficientStockError antes de mutar nada.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		ID:             uuid.New().String(),
		ProductID:      in.ProductID,
		Kind:           in.Kind,
		Subtype:        in.Subtype,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		DocumentNumber: in.DocumentNumber,
		SupplierID:     in.SupplierID,
		UserID:         in.UserID,
		Lot:            in.Lot,
		ExpiresAt:      in.ExpiresAt,
		Notes:          in.Notes,
		IdempotencyKey: in.IdempotencyKey,
	}
	var replayed *entity.Movement
	err := withLock(ctx, l.locker, in.ProductID, func() error {
		mov.Timestamp = l.now()
		return l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockLevelRepository) error {
			if in.IdempotencyKey != "" {
				prev, err := movRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
				if err != nil {
					return err
				}
				if prev != nil {
					if prev.ProductID != in.ProductID {
						return fmt.Errorf("%w: clave %s registrada para %s", domain.ErrConflict, in.IdempotencyKey, prev.ProductID)
					}
					replayed = prev
					return nil
				}
			}
			return l.insert(ctx, movRepo, stockRepo, mov)
		})
	})
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		l.log.Info().
			Str("product_id", replayed.ProductID).
			Str("movement_id", replayed.ID).
			Str("idempotency_key", in.IdempotencyKey).
			Msg("movimiento ya registrado, se omite")
		return replayed, nil
	}

	l.log.Info().
		Str("product_id", mov.ProductID).
		Str("movement_id", mov.ID).
		Str("kind", mov.Kind).
		Str("subtype", mov.Subtype).
		Int64("quantity", mov.Quantity).
		Int64("balance", mov.RunningBalance).
		Msg("movimiento registrado")
	l.projection.notify(ctx, mov.ProductID)
	return mov, nil
}

// insert bloquea la fila de stock, verifica el saldo, persiste la fila y aplica el delta.
// Debe ejecutarse dentro de TxRunner.Run con el lock del producto tomado.
func (l *Ledger) insert(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockLevelRepository,
	mov *entity.Movement,
) error {
	level, err := stockRepo.GetForUpdate(ctx, mov.ProductID)
	if err != nil {
		return err
	}
	balance, err := currentBalance(ctx, movRepo, mov.ProductID)
	if err != nil {
		return err
	}
	next := balance + mov.Delta()
	if next < 0 {
		return &domain.InsufficientStockError{ProductID: mov.ProductID, Available: balance, Requested: mov.Quantity}
	}
	mov.RunningBalance = next
	if err := movRepo.Create(ctx, mov); err != nil {
		return err
	}
	if err := l.projection.applyMovement(level, mov); err != nil {
		return err
	}
	return stockRepo.Upsert(ctx, level)
}

// Void anula un movimiento original: agrega una fila REVERSAL con la dirección lógica inversa,
// marca Voided=true y aplica el delta inverso a la proyección.
func (l *Ledger) Void(ctx context.Context, movementID, userID, reason string) (*entity.Movement, error) {
	return l.compensate(ctx, movementID, userID, reason, true)
}

// Restore revierte una anulación: agrega una fila REINSTATEMENT, marca Voided=false
// y vuelve a aplicar el delta original.
func (l *Ledger) Restore(ctx context.Context, movementID, userID, reason string) (*entity.Movement, error) {
	return l.compensate(ctx, movementID, userID, reason, false)
}

func (l *Ledger) compensate(ctx context.Context, movementID, userID, reason string, void bool) (*entity.Movement, error) {
	if movementID == "" {
		return nil, domain.ErrInvalidInput
	}
	// Lectura previa solo para conocer el producto a bloquear; se vuelve a leer dentro de la tx.
	orig, err := l.movRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, domain.ErrNotFound
	}
	var comp *entity.Movement
	err = withLock(ctx, l.locker, orig.ProductID, func() error {
		return l.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockLevelRepository) error {
			cur, err := movRepo.GetByID(ctx, movementID)
			if err != nil {
				return err
			}
			if cur == nil {
				return domain.ErrNotFound
			}
			if cur.IsCompensation() {
				return domain.ErrInvalidInput
			}
			if void && cur.Voided {
				return domain.ErrAlreadyVoided
			}
			if !void && !cur.Voided {
				return domain.ErrNotVoided
			}

			kind := entity.MovementKindREINSTATEMENT
			delta := cur.Delta()
			if void {
				kind = entity.MovementKindREVERSAL
				delta = -delta
			}
			sign := entity.AdjustmentPositive
			if delta < 0 {
				sign = entity.AdjustmentNegative
			}
			comp = &entity.Movement{
				ID:             uuid.New().String(),
				ProductID:      cur.ProductID,
				Timestamp:      l.now(),
				Kind:           kind,
				Subtype:        sign,
				Quantity:       cur.Quantity,
				UnitCost:       cur.UnitCost,
				DocumentNumber: cur.DocumentNumber,
				SupplierID:     cur.SupplierID,
				UserID:         userID,
				Lot:            cur.Lot,
				ExpiresAt:      cur.ExpiresAt,
				ReversalOf:     cur.ID,
				Notes:          reason,
			}
			if err := l.insert(ctx, movRepo, stockRepo, comp); err != nil {
				return err
			}
			if err := movRepo.SetVoided(ctx, cur.ID, void); err != nil {
				return err
			}
			if !cur.IsSale() {
				return nil
			}
			return l.projection.refreshLastSale(ctx, movRepo, stockRepo, cur.ProductID)
		})
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("product_id", comp.ProductID).
		Str("movement_id", movementID).
		Str("compensation_id", comp.ID).
		Str("kind", comp.Kind).
		Int64("balance", comp.RunningBalance).
		Msg("movimiento compensado")
	l.projection.notify(ctx, comp.ProductID)
	return comp, nil
}

// CurrentBalance saldo implícito en la última fila del kardex, o 0 si no hay filas.
// Las compensaciones mantienen ese saldo siempre correcto localmente.
func (l *Ledger) CurrentBalance(ctx context.Context, productID string) (int64, error) {
	if productID == "" {
		return 0, domain.ErrInvalidInput
	}
	return currentBalance(ctx, l.movRepo, productID)
}

// Get devuelve una fila del kardex.
func (l *Ledger) Get(ctx context.Context, movementID string) (*entity.Movement, error) {
	m, err := l.movRepo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// List devuelve el kardex del producto en orden cronológico.
func (l *Ledger) List(ctx context.Context, productID string, filter repository.MovementFilter) ([]*entity.Movement, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	return l.movRepo.ListByProduct(ctx, productID, filter)
}

func currentBalance(ctx context.Context, movRepo repository.MovementRepository, productID string) (int64, error) {
	last, err := movRepo.Latest(ctx, productID)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return last.RunningBalance, nil
}
